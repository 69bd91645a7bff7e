package queries

import (
	"context"
	"fmt"

	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// ListProductBatchesQuery lists every finished batch sharing a SKU
type ListProductBatchesQuery struct {
	TenantID string `validate:"required"`
	SKU      string `validate:"required"`
}

// ListProductBatchesResponse lists batches oldest first
type ListProductBatchesResponse struct {
	Batches []*inventory.FinishedProduct
}

// ListProductBatchesHandler handles the ListProductBatches query
type ListProductBatchesHandler struct {
	productRepo inventory.FinishedProductRepository
}

// NewListProductBatchesHandler creates a new ListProductBatchesHandler
func NewListProductBatchesHandler(productRepo inventory.FinishedProductRepository) *ListProductBatchesHandler {
	return &ListProductBatchesHandler{productRepo: productRepo}
}

// Handle executes the ListProductBatches query
func (h *ListProductBatchesHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*ListProductBatchesQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListProductBatchesQuery")
	}

	tenantID, err := shared.NewTenantID(query.TenantID)
	if err != nil {
		return nil, err
	}

	batches, err := h.productRepo.FindBySKU(ctx, tenantID, query.SKU)
	if err != nil {
		return nil, err
	}
	return &ListProductBatchesResponse{Batches: batches}, nil
}
