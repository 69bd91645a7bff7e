package application

import (
	"fmt"

	catalogCmd "github.com/Oscarts/backery2-app-sub005/internal/application/catalog/commands"
	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/application/mediator"
	productionCmd "github.com/Oscarts/backery2-app-sub005/internal/application/production/commands"
	productionQuery "github.com/Oscarts/backery2-app-sub005/internal/application/production/queries"
	"github.com/Oscarts/backery2-app-sub005/internal/application/production/services"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// Dependencies are the collaborators every production handler is built from
type Dependencies struct {
	// UnitOfWork runs every command in one transaction
	UnitOfWork common.UnitOfWork

	// Reads are repositories outside any transaction, used by queries
	Reads common.Repositories

	Clock        shared.Clock
	Completion   services.CompletionOptions
	DefaultSteps []production.StepDefinition
}

// RegisterHandlers registers every catalog and production handler with med
func RegisterHandlers(med mediator.Mediator, deps Dependencies) error {
	if deps.Clock == nil {
		deps.Clock = shared.NewRealClock()
	}

	engine := services.NewAllocationEngine(deps.UnitOfWork, deps.Clock)
	completion := services.NewCompletionService(deps.UnitOfWork, deps.Clock, deps.Completion)
	steps := services.NewStepService(deps.UnitOfWork, deps.Clock)
	stepHandler := productionCmd.NewStepCommandHandler(steps)

	registrations := []struct {
		name     string
		register func() error
	}{
		{"ImportCatalog", func() error {
			return mediator.RegisterHandler[*catalogCmd.ImportCatalogCommand](med,
				catalogCmd.NewImportCatalogHandler(deps.UnitOfWork, deps.Clock))
		}},
		{"PlanProductionRun", func() error {
			return mediator.RegisterHandler[*productionCmd.PlanProductionRunCommand](med,
				productionCmd.NewPlanProductionRunHandler(deps.UnitOfWork, deps.Clock, deps.DefaultSteps))
		}},
		{"AllocateIngredients", func() error {
			return mediator.RegisterHandler[*productionCmd.AllocateIngredientsCommand](med,
				productionCmd.NewAllocateIngredientsHandler(engine))
		}},
		{"ReleaseAllocations", func() error {
			return mediator.RegisterHandler[*productionCmd.ReleaseAllocationsCommand](med,
				productionCmd.NewReleaseAllocationsHandler(engine))
		}},
		{"UpdateRunStatus", func() error {
			return mediator.RegisterHandler[*productionCmd.UpdateRunStatusCommand](med,
				productionCmd.NewUpdateRunStatusHandler(completion))
		}},
		{"CompleteProductionRun", func() error {
			return mediator.RegisterHandler[*productionCmd.CompleteProductionRunCommand](med,
				productionCmd.NewCompleteProductionRunHandler(completion))
		}},
		{"StartStep", func() error {
			return mediator.RegisterHandler[*productionCmd.StartStepCommand](med, stepHandler)
		}},
		{"CompleteStep", func() error {
			return mediator.RegisterHandler[*productionCmd.CompleteStepCommand](med, stepHandler)
		}},
		{"SkipStep", func() error {
			return mediator.RegisterHandler[*productionCmd.SkipStepCommand](med, stepHandler)
		}},
		{"FailStep", func() error {
			return mediator.RegisterHandler[*productionCmd.FailStepCommand](med, stepHandler)
		}},
		{"GetProductionRun", func() error {
			return mediator.RegisterHandler[*productionQuery.GetProductionRunQuery](med,
				productionQuery.NewGetProductionRunHandler(deps.Reads.Runs, deps.Reads.FinishedProducts))
		}},
		{"ListProductBatches", func() error {
			return mediator.RegisterHandler[*productionQuery.ListProductBatchesQuery](med,
				productionQuery.NewListProductBatchesHandler(deps.Reads.FinishedProducts))
		}},
	}

	for _, r := range registrations {
		if err := r.register(); err != nil {
			return fmt.Errorf("failed to register %s handler: %w", r.name, err)
		}
	}
	return nil
}

// StepDefinitions turns configured step names into step definitions
func StepDefinitions(names []string) []production.StepDefinition {
	defs := make([]production.StepDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, production.StepDefinition{Name: name})
	}
	return defs
}
