package commands

import (
	"context"
	"fmt"

	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/application/production/services"
)

// StartStepCommand starts one step of a run
type StartStepCommand struct {
	RunID  string `validate:"required"`
	StepID string `validate:"required"`
}

// CompleteStepCommand completes one step of a run
type CompleteStepCommand struct {
	RunID  string `validate:"required"`
	StepID string `validate:"required"`
	Notes  string
}

// SkipStepCommand skips one pending step of a run
type SkipStepCommand struct {
	RunID  string `validate:"required"`
	StepID string `validate:"required"`
	Reason string
}

// FailStepCommand marks an in-progress step as failed
type FailStepCommand struct {
	RunID  string `validate:"required"`
	StepID string `validate:"required"`
	Reason string `validate:"required"`
}

// StepCommandHandler handles all four step commands. The response is a *services.StepResult.
type StepCommandHandler struct {
	steps *services.StepService
}

// NewStepCommandHandler creates a new StepCommandHandler
func NewStepCommandHandler(steps *services.StepService) *StepCommandHandler {
	return &StepCommandHandler{steps: steps}
}

// Handle dispatches on the concrete step command
func (h *StepCommandHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	var (
		result *services.StepResult
		err    error
	)
	switch cmd := request.(type) {
	case *StartStepCommand:
		result, err = h.steps.StartStep(ctx, cmd.RunID, cmd.StepID)
	case *CompleteStepCommand:
		result, err = h.steps.CompleteStep(ctx, cmd.RunID, cmd.StepID, cmd.Notes)
	case *SkipStepCommand:
		result, err = h.steps.SkipStep(ctx, cmd.RunID, cmd.StepID, cmd.Reason)
	case *FailStepCommand:
		result, err = h.steps.FailStep(ctx, cmd.RunID, cmd.StepID, cmd.Reason)
	default:
		return nil, fmt.Errorf("invalid request type: %T is not a step command", request)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
