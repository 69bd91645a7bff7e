package commands

import (
	"context"
	"fmt"

	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/application/production/services"
)

// CompleteProductionRunCommand completes a run and creates its finished batch
type CompleteProductionRunCommand struct {
	RunID string `validate:"required"`
}

// CompleteProductionRunHandler handles the CompleteProductionRun command.
// The response is a *services.CompletionResult.
type CompleteProductionRunHandler struct {
	completion *services.CompletionService
}

// NewCompleteProductionRunHandler creates a new CompleteProductionRunHandler
func NewCompleteProductionRunHandler(completion *services.CompletionService) *CompleteProductionRunHandler {
	return &CompleteProductionRunHandler{completion: completion}
}

// Handle executes the CompleteProductionRun command
func (h *CompleteProductionRunHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*CompleteProductionRunCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *CompleteProductionRunCommand")
	}
	result, err := h.completion.CompleteProductionRun(ctx, cmd.RunID)
	if err != nil {
		return nil, err
	}
	return result, nil
}
