package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	productionCmd "github.com/Oscarts/backery2-app-sub005/internal/application/production/commands"
	productionQuery "github.com/Oscarts/backery2-app-sub005/internal/application/production/queries"
	"github.com/Oscarts/backery2-app-sub005/internal/application/production/services"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
)

// NewProductionCommand creates the production command with subcommands
func NewProductionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "production",
		Short: "Plan, allocate and complete production runs",
		Long: `Manage production runs.

A run is planned from a recipe and a target quantity, reserves its ingredients
with 'allocate', works through its steps and finally 'complete' consumes the
reserved stock and records a finished batch.

Examples:
  bakery production plan --recipe <recipe-id> --quantity 20
  bakery production allocate <run-id>
  bakery production start-step <run-id> <step-id>
  bakery production complete-step <run-id> <step-id> --notes "proofed 2h"
  bakery production status <run-id> ON_HOLD --release
  bakery production complete <run-id>
  bakery production batches --sku BREAD`,
	}

	cmd.AddCommand(newProductionPlanCommand())
	cmd.AddCommand(newProductionAllocateCommand())
	cmd.AddCommand(newProductionReleaseCommand())
	cmd.AddCommand(newProductionStepCommand("start-step", "Start a step"))
	cmd.AddCommand(newProductionStepCommand("complete-step", "Complete a step"))
	cmd.AddCommand(newProductionStepCommand("skip-step", "Skip a pending step"))
	cmd.AddCommand(newProductionStepCommand("fail-step", "Mark an in-progress step as failed"))
	cmd.AddCommand(newProductionStatusCommand())
	cmd.AddCommand(newProductionCompleteCommand())
	cmd.AddCommand(newProductionShowCommand())
	cmd.AddCommand(newProductionBatchesCommand())

	return cmd
}

func newProductionPlanCommand() *cobra.Command {
	var (
		recipeID string
		name     string
		quantity string
		unit     string
		steps    []string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a production run from a recipe",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseDecimal("quantity", quantity)
			if err != nil {
				return err
			}

			return withApp(func(a *app) error {
				command := &productionCmd.PlanProductionRunCommand{
					TenantID:       a.tenant(),
					RecipeID:       recipeID,
					Name:           name,
					TargetQuantity: target,
					TargetUnit:     unit,
				}
				for _, s := range steps {
					command.Steps = append(command.Steps, production.StepDefinition{Name: strings.TrimSpace(s)})
				}

				result, err := a.send(command)
				if err != nil {
					return err
				}
				printRun(result.(*productionCmd.PlanProductionRunResponse).Run, nil)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&recipeID, "recipe", "", "Recipe id [required]")
	cmd.Flags().StringVar(&quantity, "quantity", "", "Target quantity [required]")
	cmd.Flags().StringVar(&name, "name", "", "Run name (default: recipe name and date)")
	cmd.Flags().StringVar(&unit, "unit", "", "Target unit (default: recipe yield unit)")
	cmd.Flags().StringSliceVar(&steps, "step", nil, "Step name, repeatable (default: production.default_steps)")
	cmd.MarkFlagRequired("recipe")
	cmd.MarkFlagRequired("quantity")

	return cmd
}

func newProductionAllocateCommand() *cobra.Command {
	var (
		recipeID   string
		multiplier string
	)

	cmd := &cobra.Command{
		Use:   "allocate <run-id>",
		Short: "Reserve the run's ingredients",
		Long: `Reserve every ingredient of the run's recipe. Either all ingredients are
reserved or none; a shortfall lists every missing material. Allocating a run
that already holds reservations returns them unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := &productionCmd.AllocateIngredientsCommand{RunID: args[0], RecipeID: recipeID}
			if multiplier != "" {
				m, err := parseDecimal("multiplier", multiplier)
				if err != nil {
					return err
				}
				command.BatchMultiplier = &m
			}

			return withApp(func(a *app) error {
				result, err := a.send(command)
				if err != nil {
					return err
				}
				allocations := result.(*productionCmd.AllocateIngredientsResponse).Allocations
				if outputJSON {
					fmt.Println(prettyPrint(allocationViews(allocations)))
					return nil
				}
				fmt.Printf("✓ %d ingredients allocated to run %s\n\n", len(allocations), args[0])
				printAllocations(allocations)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&recipeID, "recipe", "", "Recipe id (default: the run's recipe)")
	cmd.Flags().StringVar(&multiplier, "multiplier", "", "Batch multiplier (default: target quantity / recipe yield)")

	return cmd
}

func newProductionReleaseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "release <run-id>",
		Short: "Release the run's outstanding reservations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				result, err := a.send(&productionCmd.ReleaseAllocationsCommand{RunID: args[0]})
				if err != nil {
					return err
				}
				released := result.(*productionCmd.ReleaseAllocationsResponse).Released
				if outputJSON {
					fmt.Println(prettyPrint(allocationViews(released)))
					return nil
				}
				fmt.Printf("✓ %d allocations released\n", len(released))
				return nil
			})
		},
	}
}

func newProductionStepCommand(use, short string) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   use + " <run-id> <step-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, stepID := args[0], args[1]

			var command common.Request
			switch use {
			case "start-step":
				command = &productionCmd.StartStepCommand{RunID: runID, StepID: stepID}
			case "complete-step":
				command = &productionCmd.CompleteStepCommand{RunID: runID, StepID: stepID, Notes: text}
			case "skip-step":
				command = &productionCmd.SkipStepCommand{RunID: runID, StepID: stepID, Reason: text}
			default:
				command = &productionCmd.FailStepCommand{RunID: runID, StepID: stepID, Reason: text}
			}

			return withApp(func(a *app) error {
				result, err := a.send(command)
				if err != nil {
					return err
				}
				step := result.(*services.StepResult)
				fmt.Printf("✓ Step %d %q is %s (run %s)\n",
					step.Step.Order(), step.Step.Name(), step.Step.Status(), step.Run.Status())
				return nil
			})
		},
	}

	switch use {
	case "complete-step":
		cmd.Flags().StringVar(&text, "notes", "", "Notes recorded on the step")
	case "skip-step", "fail-step":
		cmd.Flags().StringVar(&text, "reason", "", "Reason recorded on the step")
	}
	if use == "fail-step" {
		cmd.MarkFlagRequired("reason")
	}

	return cmd
}

func newProductionStatusCommand() *cobra.Command {
	var (
		release   bool
		noRelease bool
		notes     string
	)

	cmd := &cobra.Command{
		Use:   "status <run-id> <PLANNED|IN_PROGRESS|ON_HOLD|COMPLETED|CANCELLED>",
		Short: "Change a run's status",
		Long: `Change a run's status. COMPLETED runs the full completion; CANCELLED always
releases the run's reservations; ON_HOLD releases them when --release is given
or production.release_on_hold is set.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if release && noRelease {
				return fmt.Errorf("--release and --keep-allocations are mutually exclusive")
			}
			command := &productionCmd.UpdateRunStatusCommand{
				RunID:  args[0],
				Status: strings.ToUpper(args[1]),
				Notes:  notes,
			}
			if release || noRelease {
				command.ReleaseAllocations = &release
			}

			return withApp(func(a *app) error {
				result, err := a.send(command)
				if err != nil {
					return err
				}
				run := result.(*productionCmd.UpdateRunStatusResponse).Run
				fmt.Printf("✓ Run %s is %s\n", run.ID(), run.Status())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&release, "release", false, "Release allocations when putting the run on hold")
	cmd.Flags().BoolVar(&noRelease, "keep-allocations", false, "Keep allocations when putting the run on hold")
	cmd.Flags().StringVar(&notes, "notes", "", "Replace the run notes")

	return cmd
}

func newProductionCompleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <run-id>",
		Short: "Complete a run and record its finished batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				result, err := a.send(&productionCmd.CompleteProductionRunCommand{RunID: args[0]})
				if err != nil {
					return err
				}
				completion := result.(*services.CompletionResult)
				if outputJSON {
					fmt.Println(prettyPrint(newRunView(completion.Run, completion.FinishedProduct)))
					return nil
				}
				p := completion.FinishedProduct
				fmt.Printf("✓ Run %s completed\n", completion.Run.ID())
				fmt.Printf("  Product:   %s\n", p.Name())
				fmt.Printf("  SKU:       %s\n", p.SKU())
				fmt.Printf("  Batch:     %s\n", p.BatchNumber())
				fmt.Printf("  Quantity:  %s %s\n", p.Quantity(), p.Unit())
				fmt.Printf("  Cost:      %s (%s per unit)\n", p.CostToProduce().StringFixed(2), p.UnitCost())
				return nil
			})
		},
	}
}

func newProductionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run with its steps and allocations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				result, err := a.send(&productionQuery.GetProductionRunQuery{RunID: args[0]})
				if err != nil {
					return err
				}
				response := result.(*productionQuery.GetProductionRunResponse)
				printRun(response.Run, response.FinishedProduct)
				return nil
			})
		},
	}
}

func newProductionBatchesCommand() *cobra.Command {
	var sku string

	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List finished batches sharing a SKU",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				result, err := a.send(&productionQuery.ListProductBatchesQuery{TenantID: a.tenant(), SKU: sku})
				if err != nil {
					return err
				}
				printBatches(result.(*productionQuery.ListProductBatchesResponse).Batches)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sku, "sku", "", "Product SKU [required]")
	cmd.MarkFlagRequired("sku")

	return cmd
}
