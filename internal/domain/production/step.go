package production

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StepStatus represents the progress of one production step
type StepStatus string

const (
	StepStatusPending    StepStatus = "PENDING"
	StepStatusInProgress StepStatus = "IN_PROGRESS"
	StepStatusCompleted  StepStatus = "COMPLETED"
	StepStatusSkipped    StepStatus = "SKIPPED"
	StepStatusFailed     StepStatus = "FAILED"
)

// IsDone reports whether the step no longer blocks run completion
func (s StepStatus) IsDone() bool {
	return s == StepStatusCompleted || s == StepStatusSkipped
}

// StepDefinition describes a step to create when planning a run
type StepDefinition struct {
	Name        string
	Description string
}

// Step is one ordered stage of a production run.
//
// Lifecycle:
//
//	PENDING -> IN_PROGRESS -> COMPLETED
//	        \              \-> FAILED -> IN_PROGRESS (retry)
//	        \-> COMPLETED (quick complete)
//	        \-> SKIPPED
type Step struct {
	id          string
	runID       string
	name        string
	description string
	order       int
	status      StepStatus
	startedAt   *time.Time
	completedAt *time.Time
	notes       string
}

func newStep(runID string, order int, def StepDefinition) *Step {
	return &Step{
		id:          uuid.New().String(),
		runID:       runID,
		name:        strings.TrimSpace(def.Name),
		description: def.Description,
		order:       order,
		status:      StepStatusPending,
	}
}

// ReconstructStep rebuilds a step from persistence
func ReconstructStep(
	id, runID, name, description string,
	order int,
	status StepStatus,
	startedAt, completedAt *time.Time,
	notes string,
) *Step {
	return &Step{
		id:          id,
		runID:       runID,
		name:        name,
		description: description,
		order:       order,
		status:      status,
		startedAt:   startedAt,
		completedAt: completedAt,
		notes:       notes,
	}
}

func (s *Step) ID() string              { return s.id }
func (s *Step) RunID() string           { return s.runID }
func (s *Step) Name() string            { return s.name }
func (s *Step) Description() string     { return s.description }
func (s *Step) Order() int              { return s.order }
func (s *Step) Status() StepStatus      { return s.status }
func (s *Step) StartedAt() *time.Time   { return s.startedAt }
func (s *Step) CompletedAt() *time.Time { return s.completedAt }
func (s *Step) Notes() string           { return s.notes }

// Start transitions PENDING or FAILED -> IN_PROGRESS
func (s *Step) Start(now time.Time) error {
	if s.status != StepStatusPending && s.status != StepStatusFailed {
		return &InvalidStepTransitionError{
			StepID:      s.id,
			From:        s.status,
			To:          StepStatusInProgress,
			Description: "can only start PENDING or FAILED steps",
		}
	}
	s.status = StepStatusInProgress
	s.startedAt = &now
	s.completedAt = nil
	return nil
}

// Complete transitions PENDING or IN_PROGRESS -> COMPLETED
func (s *Step) Complete(now time.Time, notes string) error {
	if s.status != StepStatusPending && s.status != StepStatusInProgress {
		return &InvalidStepTransitionError{
			StepID:      s.id,
			From:        s.status,
			To:          StepStatusCompleted,
			Description: "can only complete PENDING or IN_PROGRESS steps",
		}
	}
	if s.startedAt == nil {
		s.startedAt = &now
	}
	s.status = StepStatusCompleted
	s.completedAt = &now
	if notes != "" {
		s.notes = notes
	}
	return nil
}

// Skip transitions PENDING -> SKIPPED
func (s *Step) Skip(now time.Time, reason string) error {
	if s.status != StepStatusPending {
		return &InvalidStepTransitionError{
			StepID:      s.id,
			From:        s.status,
			To:          StepStatusSkipped,
			Description: "can only skip PENDING steps",
		}
	}
	s.status = StepStatusSkipped
	s.completedAt = &now
	s.notes = reason
	return nil
}

// Fail transitions IN_PROGRESS -> FAILED
func (s *Step) Fail(now time.Time, reason string) error {
	if s.status != StepStatusInProgress {
		return &InvalidStepTransitionError{
			StepID:      s.id,
			From:        s.status,
			To:          StepStatusFailed,
			Description: "can only fail IN_PROGRESS steps",
		}
	}
	s.status = StepStatusFailed
	s.completedAt = &now
	s.notes = reason
	return nil
}
