package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	tenantID   string
	outputJSON bool
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bakery",
		Short: "Bakery production CLI - plan, allocate and complete production runs",
		Long: `Bakery production CLI manages recipes, inventory reservations and production runs.
Commands run directly against the configured database.

Examples:
  bakery migrate
  bakery catalog import catalog.yaml
  bakery production plan --recipe <recipe-id> --quantity 20
  bakery production allocate <run-id>
  bakery production complete-step <run-id> <step-id>
  bakery production complete <run-id>
  bakery production show <run-id>`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: ./config.yaml, ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "",
		"Tenant id (default: production.tenant_id)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false,
		"Print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	// Add command groups
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewCatalogCommand())
	rootCmd.AddCommand(NewProductionCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
