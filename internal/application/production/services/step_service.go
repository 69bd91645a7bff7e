package services

import (
	"context"

	"github.com/Oscarts/backery2-app-sub005/internal/adapters/metrics"
	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// StepService records progress on the steps of a production run
type StepService struct {
	uow   common.UnitOfWork
	clock shared.Clock
}

// NewStepService creates a new step service
func NewStepService(uow common.UnitOfWork, clock shared.Clock) *StepService {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &StepService{uow: uow, clock: clock}
}

// StepResult carries the updated run and the step that changed
type StepResult struct {
	Run  *production.Run
	Step *production.Step
}

// StartStep moves a step to IN_PROGRESS. Starting the first step of a PLANNED run
// moves the run to IN_PROGRESS.
func (s *StepService) StartStep(ctx context.Context, runID, stepID string) (*StepResult, error) {
	return s.apply(ctx, runID, func(run *production.Run) (*production.Step, error) {
		return run.StartStep(stepID, s.clock.Now())
	})
}

// CompleteStep moves a PENDING or IN_PROGRESS step to COMPLETED
func (s *StepService) CompleteStep(ctx context.Context, runID, stepID, notes string) (*StepResult, error) {
	return s.apply(ctx, runID, func(run *production.Run) (*production.Step, error) {
		return run.CompleteStep(stepID, notes, s.clock.Now())
	})
}

// SkipStep moves a PENDING step to SKIPPED
func (s *StepService) SkipStep(ctx context.Context, runID, stepID, reason string) (*StepResult, error) {
	return s.apply(ctx, runID, func(run *production.Run) (*production.Step, error) {
		return run.SkipStep(stepID, reason, s.clock.Now())
	})
}

// FailStep moves an IN_PROGRESS step to FAILED
func (s *StepService) FailStep(ctx context.Context, runID, stepID, reason string) (*StepResult, error) {
	return s.apply(ctx, runID, func(run *production.Run) (*production.Step, error) {
		return run.FailStep(stepID, reason, s.clock.Now())
	})
}

func (s *StepService) apply(
	ctx context.Context,
	runID string,
	mutate func(run *production.Run) (*production.Step, error),
) (*StepResult, error) {
	logger := common.LoggerFromContext(ctx)

	var (
		result *StepResult
		from   production.RunStatus
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos common.Repositories) error {
		run, err := lockRun(ctx, repos, runID)
		if err != nil {
			return err
		}
		from = run.Status()

		step, err := mutate(run)
		if err != nil {
			return err
		}
		if err := repos.Runs.Update(ctx, run); err != nil {
			return err
		}

		allocations, err := repos.Allocations.FindByRunID(ctx, run.ID())
		if err != nil {
			return err
		}
		run.AttachAllocations(allocations)
		result = &StepResult{Run: run, Step: step}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tenant := result.Run.TenantID().String()
	metrics.RecordStepTransition(tenant, string(result.Step.Status()))
	if from != result.Run.Status() {
		metrics.RecordRunTransition(tenant, string(from), string(result.Run.Status()))
	}
	logger.Info("production step updated",
		"run_id", runID,
		"step_id", result.Step.ID(),
		"step", result.Step.Name(),
		"status", string(result.Step.Status()),
		"run_status", string(result.Run.Status()),
	)
	return result, nil
}
