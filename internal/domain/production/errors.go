package production

import (
	"fmt"
	"strings"
)

// InvalidTransitionError indicates an illegal run status change
type InvalidTransitionError struct {
	RunID       string
	From        RunStatus
	To          RunStatus
	Description string
}

func (e *InvalidTransitionError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("invalid production run transition for %s: %s -> %s: %s",
			e.RunID, e.From, e.To, e.Description)
	}
	return fmt.Sprintf("invalid production run transition for %s: %s -> %s", e.RunID, e.From, e.To)
}

// InvalidStepTransitionError indicates an illegal step status change
type InvalidStepTransitionError struct {
	StepID      string
	From        StepStatus
	To          StepStatus
	Description string
}

func (e *InvalidStepTransitionError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("invalid step transition for %s: %s -> %s: %s",
			e.StepID, e.From, e.To, e.Description)
	}
	return fmt.Sprintf("invalid step transition for %s: %s -> %s", e.StepID, e.From, e.To)
}

// BlockingStep is a step that prevents completion of its run
type BlockingStep struct {
	ID     string
	Name   string
	Order  int
	Status StepStatus
}

// IncompleteStepsError rejects completion while any step is neither COMPLETED nor SKIPPED
type IncompleteStepsError struct {
	RunID         string
	BlockingSteps []BlockingStep
}

func (e *IncompleteStepsError) Error() string {
	names := make([]string, 0, len(e.BlockingSteps))
	for _, s := range e.BlockingSteps {
		names = append(names, fmt.Sprintf("#%d %s (%s)", s.Order, s.Name, s.Status))
	}
	return fmt.Sprintf("production run %s has incomplete steps: %s", e.RunID, strings.Join(names, ", "))
}

// AllocationStateError indicates an operation on an allocation in the wrong state
type AllocationStateError struct {
	AllocationID string
	Status       AllocationStatus
	Operation    string
}

func (e *AllocationStateError) Error() string {
	return fmt.Sprintf("cannot %s allocation %s in status %s", e.Operation, e.AllocationID, e.Status)
}

// RunNotFoundError is returned when a production run id does not resolve
type RunNotFoundError struct {
	RunID string
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("production run not found: %s", e.RunID)
}
