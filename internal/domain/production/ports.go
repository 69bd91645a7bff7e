package production

import "context"

// RunRepository persists production runs together with their steps
type RunRepository interface {
	// Create inserts a new run and all of its steps
	Create(ctx context.Context, run *Run) error

	// Update writes the run's status fields and every step
	Update(ctx context.Context, run *Run) error

	// FindByID loads a run with steps and allocations; nil, nil when missing
	FindByID(ctx context.Context, id string) (*Run, error)

	// FindByIDForUpdate is FindByID under a row lock held until the enclosing transaction ends
	FindByIDForUpdate(ctx context.Context, id string) (*Run, error)
}

// AllocationRepository persists the allocations of runs
type AllocationRepository interface {
	// FindByRunID lists a run's allocations ordered by material
	FindByRunID(ctx context.Context, runID string) ([]*Allocation, error)

	// Upsert inserts the allocation or overwrites the row for the same (run, material)
	Upsert(ctx context.Context, allocation *Allocation) error

	// Update writes quantities, status and timestamps of an existing allocation
	Update(ctx context.Context, allocation *Allocation) error
}
