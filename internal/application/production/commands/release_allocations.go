package commands

import (
	"context"
	"fmt"

	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/application/production/services"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
)

// ReleaseAllocationsCommand gives back every outstanding reservation of a run
type ReleaseAllocationsCommand struct {
	RunID string `validate:"required"`
}

// ReleaseAllocationsResponse lists the allocations released by this call
type ReleaseAllocationsResponse struct {
	Released []*production.Allocation
}

// ReleaseAllocationsHandler handles the ReleaseAllocations command
type ReleaseAllocationsHandler struct {
	engine *services.AllocationEngine
}

// NewReleaseAllocationsHandler creates a new ReleaseAllocationsHandler
func NewReleaseAllocationsHandler(engine *services.AllocationEngine) *ReleaseAllocationsHandler {
	return &ReleaseAllocationsHandler{engine: engine}
}

// Handle executes the ReleaseAllocations command
func (h *ReleaseAllocationsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ReleaseAllocationsCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ReleaseAllocationsCommand")
	}

	released, err := h.engine.ReleaseAllocations(ctx, cmd.RunID)
	if err != nil {
		return nil, err
	}
	return &ReleaseAllocationsResponse{Released: released}, nil
}
