package commands

import (
	"context"
	"fmt"

	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/application/production/services"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
)

// UpdateRunStatusCommand requests a production run status change
type UpdateRunStatusCommand struct {
	RunID  string `validate:"required"`
	Status string `validate:"required"`

	// ReleaseAllocations overrides the configured release-on-hold behaviour
	ReleaseAllocations *bool
	Notes              string
}

// UpdateRunStatusResponse carries the run after the transition
type UpdateRunStatusResponse struct {
	Run *production.Run
}

// UpdateRunStatusHandler handles the UpdateRunStatus command
type UpdateRunStatusHandler struct {
	completion *services.CompletionService
}

// NewUpdateRunStatusHandler creates a new UpdateRunStatusHandler
func NewUpdateRunStatusHandler(completion *services.CompletionService) *UpdateRunStatusHandler {
	return &UpdateRunStatusHandler{completion: completion}
}

// Handle executes the UpdateRunStatus command
func (h *UpdateRunStatusHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*UpdateRunStatusCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *UpdateRunStatusCommand")
	}

	status, err := production.ParseRunStatus(cmd.Status)
	if err != nil {
		return nil, fmt.Errorf("invalid status: %w", err)
	}

	run, err := h.completion.TransitionStatus(ctx, cmd.RunID, status, services.TransitionOptions{
		ReleaseAllocations: cmd.ReleaseAllocations,
		Notes:              cmd.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &UpdateRunStatusResponse{Run: run}, nil
}
