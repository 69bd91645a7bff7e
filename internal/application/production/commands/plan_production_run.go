package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/recipe"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// PlanProductionRunCommand creates a PLANNED run for a recipe
type PlanProductionRunCommand struct {
	TenantID       string `validate:"required"`
	RecipeID       string `validate:"required"`
	Name           string // Optional: defaults to "<recipe name> <date>"
	TargetQuantity decimal.Decimal
	TargetUnit     string                      // Optional: defaults to the recipe yield unit
	Steps          []production.StepDefinition // Optional: defaults to the configured steps
}

// PlanProductionRunResponse carries the planned run
type PlanProductionRunResponse struct {
	Run *production.Run
}

// PlanProductionRunHandler handles the PlanProductionRun command
type PlanProductionRunHandler struct {
	uow          common.UnitOfWork
	clock        shared.Clock
	defaultSteps []production.StepDefinition
}

// NewPlanProductionRunHandler creates a new PlanProductionRunHandler
func NewPlanProductionRunHandler(
	uow common.UnitOfWork,
	clock shared.Clock,
	defaultSteps []production.StepDefinition,
) *PlanProductionRunHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &PlanProductionRunHandler{uow: uow, clock: clock, defaultSteps: defaultSteps}
}

// Handle executes the PlanProductionRun command
func (h *PlanProductionRunHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*PlanProductionRunCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *PlanProductionRunCommand")
	}

	tenantID, err := shared.NewTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}

	steps := cmd.Steps
	if len(steps) == 0 {
		steps = h.defaultSteps
	}

	var run *production.Run
	err = h.uow.Do(ctx, func(ctx context.Context, repos common.Repositories) error {
		r, err := repos.Recipes.FindByID(ctx, cmd.RecipeID)
		if err != nil {
			return err
		}
		if r == nil || r.TenantID() != tenantID {
			return &recipe.RecipeNotFoundError{RecipeID: cmd.RecipeID}
		}

		now := h.clock.Now()
		name := cmd.Name
		if name == "" {
			name = fmt.Sprintf("%s %s", r.Name(), now.Format("2006-01-02"))
		}
		unit := cmd.TargetUnit
		if unit == "" {
			unit = r.YieldUnit()
		}

		run, err = production.NewRun(tenantID, name, r.ID(), cmd.TargetQuantity, unit, steps, now)
		if err != nil {
			return err
		}
		return repos.Runs.Create(ctx, run)
	})
	if err != nil {
		return nil, err
	}

	common.LoggerFromContext(ctx).Info("production run planned",
		"run_id", run.ID(),
		"recipe_id", run.RecipeID(),
		"target_quantity", run.TargetQuantity().String(),
		"steps", len(run.Steps()),
	)
	return &PlanProductionRunResponse{Run: run}, nil
}
