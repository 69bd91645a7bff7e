package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/application/production/services"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
)

// AllocateIngredientsCommand reserves the ingredients of a run
type AllocateIngredientsCommand struct {
	RunID    string `validate:"required"`
	RecipeID string // Optional: defaults to the run's recipe

	// BatchMultiplier scales the recipe; nil derives it from the run target and recipe yield
	BatchMultiplier *decimal.Decimal
}

// AllocateIngredientsResponse lists the run's allocations after the call
type AllocateIngredientsResponse struct {
	Allocations []*production.Allocation
}

// AllocateIngredientsHandler handles the AllocateIngredients command
type AllocateIngredientsHandler struct {
	engine *services.AllocationEngine
}

// NewAllocateIngredientsHandler creates a new AllocateIngredientsHandler
func NewAllocateIngredientsHandler(engine *services.AllocationEngine) *AllocateIngredientsHandler {
	return &AllocateIngredientsHandler{engine: engine}
}

// Handle executes the AllocateIngredients command
func (h *AllocateIngredientsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*AllocateIngredientsCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *AllocateIngredientsCommand")
	}

	var (
		allocations []*production.Allocation
		err         error
	)
	if cmd.BatchMultiplier != nil {
		allocations, err = h.engine.AllocateIngredients(ctx, cmd.RunID, cmd.RecipeID, *cmd.BatchMultiplier)
	} else {
		allocations, err = h.engine.AllocateForRun(ctx, cmd.RunID)
	}
	if err != nil {
		return nil, err
	}

	return &AllocateIngredientsResponse{Allocations: allocations}, nil
}
