package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Oscarts/backery2-app-sub005/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration settings",
		Long: `Inspect bakery configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (BAKERY_* prefix, e.g. BAKERY_DATABASE_TYPE)
2. Config file (config.yaml)
3. Default values

Examples:
  bakery config show
  bakery config show --config ./configs/production.yaml`,
	}

	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				fmt.Printf("Warning: Failed to load config: %v\n", err)
				fmt.Println("Using default configuration.")
				cfg = config.LoadConfigOrDefault("")
			}

			if outputJSON {
				masked := *cfg
				masked.Database.Password = maskSecret(masked.Database.Password)
				masked.Database.URL = maskPassword(masked.Database.URL)
				fmt.Println(prettyPrint(masked))
				return nil
			}

			fmt.Println("Bakery Configuration")
			fmt.Println("====================")

			fmt.Println("\nDatabase:")
			fmt.Printf("  Type:             %s\n", cfg.Database.Type)
			switch {
			case cfg.Database.Type == "sqlite":
				fmt.Printf("  Path:             %s\n", cfg.Database.Path)
			case cfg.Database.URL != "":
				fmt.Printf("  URL:              %s\n", maskPassword(cfg.Database.URL))
			default:
				fmt.Printf("  Host:             %s\n", cfg.Database.Host)
				fmt.Printf("  Port:             %d\n", cfg.Database.Port)
				fmt.Printf("  Database:         %s\n", cfg.Database.Name)
				fmt.Printf("  User:             %s\n", cfg.Database.User)
			}
			fmt.Printf("  Max Connections:  %d\n", cfg.Database.Pool.MaxOpen)

			fmt.Println("\nProduction:")
			fmt.Printf("  Tenant:           %s\n", cfg.Production.TenantID)
			fmt.Printf("  Batch Prefix:     %s\n", cfg.Production.BatchPrefix)
			fmt.Printf("  Default Steps:    %s\n", strings.Join(cfg.Production.DefaultSteps, ", "))
			fmt.Printf("  Shelf Life:       %d days\n", cfg.Production.ShelfLifeDays)
			fmt.Printf("  Release On Hold:  %t\n", cfg.Production.ReleaseOnHold)

			fmt.Println("\nMetrics:")
			fmt.Printf("  Enabled:          %t\n", cfg.Metrics.Enabled)
			fmt.Printf("  Namespace:        %s\n", cfg.Metrics.Namespace)
			if cfg.Metrics.TextfilePath != "" {
				fmt.Printf("  Textfile:         %s\n", cfg.Metrics.TextfilePath)
			}

			fmt.Println("\nLogging:")
			fmt.Printf("  Level:            %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:           %s\n", cfg.Logging.Format)
			fmt.Printf("  Output:           %s\n", cfg.Logging.Output)

			return nil
		},
	}

	return cmd
}

// maskPassword masks the password of a connection URL for display
func maskPassword(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

func maskSecret(s string) string {
	if s == "" {
		return s
	}
	return "xxxxx"
}

// prettyPrint formats JSON for display
func prettyPrint(v interface{}) string {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(bytes)
}
