package queries

import (
	"context"
	"fmt"

	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
)

// GetProductionRunQuery loads a run with its steps and allocations
type GetProductionRunQuery struct {
	RunID string `validate:"required"`
}

// GetProductionRunResponse carries the run and, once completed, its finished batch
type GetProductionRunResponse struct {
	Run             *production.Run
	FinishedProduct *inventory.FinishedProduct
}

// GetProductionRunHandler handles the GetProductionRun query
type GetProductionRunHandler struct {
	runRepo     production.RunRepository
	productRepo inventory.FinishedProductRepository
}

// NewGetProductionRunHandler creates a new GetProductionRunHandler
func NewGetProductionRunHandler(
	runRepo production.RunRepository,
	productRepo inventory.FinishedProductRepository,
) *GetProductionRunHandler {
	return &GetProductionRunHandler{runRepo: runRepo, productRepo: productRepo}
}

// Handle executes the GetProductionRun query
func (h *GetProductionRunHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetProductionRunQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetProductionRunQuery")
	}

	run, err := h.runRepo.FindByID(ctx, query.RunID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, &production.RunNotFoundError{RunID: query.RunID}
	}

	response := &GetProductionRunResponse{Run: run}
	if run.FinishedProductID() != "" {
		product, err := h.productRepo.FindByID(ctx, run.FinishedProductID())
		if err != nil {
			return nil, err
		}
		response.FinishedProduct = product
	}
	return response, nil
}
