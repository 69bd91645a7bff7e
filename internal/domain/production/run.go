package production

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// RunStatus represents the current status of a production run
type RunStatus string

const (
	// RunStatusPlanned - Created, no step started yet
	RunStatusPlanned RunStatus = "PLANNED"

	// RunStatusInProgress - At least one step has been worked on
	RunStatusInProgress RunStatus = "IN_PROGRESS"

	// RunStatusCompleted - Inventory consumed and finished product created (terminal)
	RunStatusCompleted RunStatus = "COMPLETED"

	// RunStatusCancelled - Abandoned, allocations released (terminal)
	RunStatusCancelled RunStatus = "CANCELLED"

	// RunStatusOnHold - Paused; may resume or be cancelled
	RunStatusOnHold RunStatus = "ON_HOLD"
)

var runTransitions = map[RunStatus][]RunStatus{
	RunStatusPlanned:    {RunStatusInProgress, RunStatusOnHold, RunStatusCancelled},
	RunStatusInProgress: {RunStatusOnHold, RunStatusCompleted, RunStatusCancelled},
	RunStatusOnHold:     {RunStatusInProgress, RunStatusCancelled},
}

// ParseRunStatus validates a status string
func ParseRunStatus(raw string) (RunStatus, error) {
	status := RunStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case RunStatusPlanned, RunStatusInProgress, RunStatusCompleted, RunStatusCancelled, RunStatusOnHold:
		return status, nil
	default:
		return "", fmt.Errorf("unknown production run status %q", raw)
	}
}

// IsTerminal reports whether no further transitions are permitted
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusCancelled
}

// CanTransitionTo reports whether the edge s -> to exists in the state machine
func (s RunStatus) CanTransitionTo(to RunStatus) bool {
	for _, allowed := range runTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Run is a production run of one recipe.
//
// Lifecycle:
//
//	PLANNED -> IN_PROGRESS -> COMPLETED
//	   |    \      ^  |   \
//	   |     \     |  v    \-> CANCELLED
//	   |      \-> ON_HOLD --/
//	   \-> CANCELLED
//
// COMPLETED requires every step to be COMPLETED or SKIPPED.
type Run struct {
	id                string
	tenantID          shared.TenantID
	name              string
	recipeID          string
	targetQuantity    decimal.Decimal
	targetUnit        string
	status            RunStatus
	steps             []*Step
	allocations       []*Allocation
	notes             string
	finishedProductID string
	createdAt         time.Time
	startedAt         *time.Time
	completedAt       *time.Time
	updatedAt         time.Time
}

// NewRun plans a run with steps numbered 1..n in the given order
func NewRun(
	tenantID shared.TenantID,
	name string,
	recipeID string,
	targetQuantity decimal.Decimal,
	targetUnit string,
	steps []StepDefinition,
	now time.Time,
) (*Run, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("name", "production run name cannot be empty")
	}
	if recipeID == "" {
		return nil, shared.NewValidationError("recipe_id", "production run requires a recipe")
	}
	if !targetQuantity.IsPositive() {
		return nil, shared.NewValidationError("target_quantity", "target quantity must be positive")
	}

	run := &Run{
		id:             uuid.New().String(),
		tenantID:       tenantID,
		name:           strings.TrimSpace(name),
		recipeID:       recipeID,
		targetQuantity: targetQuantity,
		targetUnit:     targetUnit,
		status:         RunStatusPlanned,
		steps:          make([]*Step, 0, len(steps)),
		createdAt:      now,
		updatedAt:      now,
	}
	for i, def := range steps {
		if strings.TrimSpace(def.Name) == "" {
			return nil, shared.NewValidationError("steps", fmt.Sprintf("step %d has no name", i+1))
		}
		run.steps = append(run.steps, newStep(run.id, i+1, def))
	}
	return run, nil
}

// ReconstructRun rebuilds a run from persistence
func ReconstructRun(
	id string,
	tenantID shared.TenantID,
	name string,
	recipeID string,
	targetQuantity decimal.Decimal,
	targetUnit string,
	status RunStatus,
	steps []*Step,
	allocations []*Allocation,
	notes string,
	finishedProductID string,
	createdAt time.Time,
	startedAt *time.Time,
	completedAt *time.Time,
	updatedAt time.Time,
) *Run {
	sorted := make([]*Step, len(steps))
	copy(sorted, steps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].order < sorted[j].order })

	return &Run{
		id:                id,
		tenantID:          tenantID,
		name:              name,
		recipeID:          recipeID,
		targetQuantity:    targetQuantity,
		targetUnit:        targetUnit,
		status:            status,
		steps:             sorted,
		allocations:       allocations,
		notes:             notes,
		finishedProductID: finishedProductID,
		createdAt:         createdAt,
		startedAt:         startedAt,
		completedAt:       completedAt,
		updatedAt:         updatedAt,
	}
}

func (r *Run) ID() string                      { return r.id }
func (r *Run) TenantID() shared.TenantID       { return r.tenantID }
func (r *Run) Name() string                    { return r.name }
func (r *Run) RecipeID() string                { return r.recipeID }
func (r *Run) TargetQuantity() decimal.Decimal { return r.targetQuantity }
func (r *Run) TargetUnit() string              { return r.targetUnit }
func (r *Run) Status() RunStatus               { return r.status }
func (r *Run) Notes() string                   { return r.notes }
func (r *Run) FinishedProductID() string       { return r.finishedProductID }
func (r *Run) CreatedAt() time.Time            { return r.createdAt }
func (r *Run) StartedAt() *time.Time           { return r.startedAt }
func (r *Run) CompletedAt() *time.Time         { return r.completedAt }
func (r *Run) UpdatedAt() time.Time            { return r.updatedAt }
func (r *Run) IsTerminal() bool                { return r.status.IsTerminal() }

// Steps returns the steps ordered by order index
func (r *Run) Steps() []*Step {
	out := make([]*Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Allocations returns the allocations loaded with the run
func (r *Run) Allocations() []*Allocation {
	out := make([]*Allocation, len(r.allocations))
	copy(out, r.allocations)
	return out
}

// AttachAllocations replaces the loaded allocation set
func (r *Run) AttachAllocations(allocations []*Allocation) {
	r.allocations = allocations
}

// SetNotes replaces the free-text notes
func (r *Run) SetNotes(notes string) {
	r.notes = notes
}

// StepByID finds a step of this run
func (r *Run) StepByID(stepID string) (*Step, error) {
	for _, s := range r.steps {
		if s.id == stepID {
			return s, nil
		}
	}
	return nil, shared.NewNotFoundError("production step", stepID)
}

// BlockingSteps lists the steps that are neither COMPLETED nor SKIPPED
func (r *Run) BlockingSteps() []BlockingStep {
	var blocking []BlockingStep
	for _, s := range r.steps {
		if !s.status.IsDone() {
			blocking = append(blocking, BlockingStep{ID: s.id, Name: s.name, Order: s.order, Status: s.status})
		}
	}
	return blocking
}

// CheckTransition validates a requested status change without applying it.
// Completion additionally requires every step to be done.
func (r *Run) CheckTransition(to RunStatus) error {
	if r.status.IsTerminal() {
		return &InvalidTransitionError{
			RunID:       r.id,
			From:        r.status,
			To:          to,
			Description: "run is in a terminal state",
		}
	}
	if !r.status.CanTransitionTo(to) {
		return &InvalidTransitionError{RunID: r.id, From: r.status, To: to}
	}
	if to == RunStatusCompleted {
		if blocking := r.BlockingSteps(); len(blocking) > 0 {
			return &IncompleteStepsError{RunID: r.id, BlockingSteps: blocking}
		}
	}
	return nil
}

// Start moves a PLANNED or ON_HOLD run to IN_PROGRESS
func (r *Run) Start(now time.Time) error {
	if err := r.CheckTransition(RunStatusInProgress); err != nil {
		return err
	}
	r.status = RunStatusInProgress
	if r.startedAt == nil {
		r.startedAt = &now
	}
	r.updatedAt = now
	return nil
}

// Hold pauses a PLANNED or IN_PROGRESS run
func (r *Run) Hold(now time.Time) error {
	if err := r.CheckTransition(RunStatusOnHold); err != nil {
		return err
	}
	r.status = RunStatusOnHold
	r.updatedAt = now
	return nil
}

// Cancel abandons a non-terminal run. Allocation release is the caller's job.
func (r *Run) Cancel(now time.Time) error {
	if err := r.CheckTransition(RunStatusCancelled); err != nil {
		return err
	}
	r.status = RunStatusCancelled
	r.completedAt = &now
	r.updatedAt = now
	return nil
}

// Complete marks the run COMPLETED and links the finished product it produced
func (r *Run) Complete(now time.Time, finishedProductID string) error {
	if err := r.CheckTransition(RunStatusCompleted); err != nil {
		return err
	}
	r.status = RunStatusCompleted
	r.finishedProductID = finishedProductID
	r.completedAt = &now
	r.updatedAt = now
	return nil
}

// StartStep starts one step; the first step activity moves a PLANNED run to IN_PROGRESS
func (r *Run) StartStep(stepID string, now time.Time) (*Step, error) {
	return r.mutateStep(stepID, now, func(s *Step) error { return s.Start(now) })
}

// CompleteStep completes one step
func (r *Run) CompleteStep(stepID string, notes string, now time.Time) (*Step, error) {
	return r.mutateStep(stepID, now, func(s *Step) error { return s.Complete(now, notes) })
}

// SkipStep skips one pending step
func (r *Run) SkipStep(stepID string, reason string, now time.Time) (*Step, error) {
	return r.mutateStep(stepID, now, func(s *Step) error { return s.Skip(now, reason) })
}

// FailStep marks an in-progress step as failed
func (r *Run) FailStep(stepID string, reason string, now time.Time) (*Step, error) {
	return r.mutateStep(stepID, now, func(s *Step) error { return s.Fail(now, reason) })
}

func (r *Run) mutateStep(stepID string, now time.Time, apply func(*Step) error) (*Step, error) {
	switch r.status {
	case RunStatusPlanned, RunStatusInProgress:
	case RunStatusOnHold:
		return nil, &InvalidTransitionError{
			RunID:       r.id,
			From:        r.status,
			To:          RunStatusInProgress,
			Description: "resume the run before working on its steps",
		}
	default:
		return nil, &InvalidTransitionError{
			RunID:       r.id,
			From:        r.status,
			To:          r.status,
			Description: "steps of a terminal run cannot change",
		}
	}

	step, err := r.StepByID(stepID)
	if err != nil {
		return nil, err
	}
	if err := apply(step); err != nil {
		return nil, err
	}
	if r.status == RunStatusPlanned {
		if err := r.Start(now); err != nil {
			return nil, err
		}
	}
	r.updatedAt = now
	return step, nil
}
