package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Oscarts/backery2-app-sub005/internal/adapters/metrics"
	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/recipe"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// Release reasons, used as metric labels and log fields
const (
	ReleaseReasonManual    = "manual"
	ReleaseReasonCancelled = "cancelled"
	ReleaseReasonOnHold    = "on_hold"
)

// AllocationEngine soft-reserves recipe ingredients against a production run and
// gives the reservations back. Every call is one transaction: a failed allocation
// leaves no reservation behind.
type AllocationEngine struct {
	uow   common.UnitOfWork
	clock shared.Clock
}

// NewAllocationEngine creates a new allocation engine
func NewAllocationEngine(uow common.UnitOfWork, clock shared.Clock) *AllocationEngine {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &AllocationEngine{uow: uow, clock: clock}
}

// AllocateIngredients reserves every ingredient of recipeID scaled by batchMultiplier.
//
// When the run already holds ALLOCATED or CONSUMED allocations they are returned
// unchanged and nothing new is reserved. An empty recipeID means the run's recipe.
func (e *AllocationEngine) AllocateIngredients(
	ctx context.Context,
	runID string,
	recipeID string,
	batchMultiplier decimal.Decimal,
) ([]*production.Allocation, error) {
	return e.allocate(ctx, runID, recipeID, &batchMultiplier)
}

// AllocateForRun reserves ingredients for the run's own target quantity
func (e *AllocationEngine) AllocateForRun(ctx context.Context, runID string) ([]*production.Allocation, error) {
	return e.allocate(ctx, runID, "", nil)
}

// ReleaseAllocations gives back every outstanding reservation of the run.
// A run with nothing allocated is a no-op.
func (e *AllocationEngine) ReleaseAllocations(ctx context.Context, runID string) ([]*production.Allocation, error) {
	logger := common.LoggerFromContext(ctx)

	var (
		released []*production.Allocation
		tenantID shared.TenantID
	)
	err := e.uow.Do(ctx, func(ctx context.Context, repos common.Repositories) error {
		run, err := lockRun(ctx, repos, runID)
		if err != nil {
			return err
		}
		tenantID = run.TenantID()

		released, err = releaseWithin(ctx, repos, run.ID(), e.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(released) > 0 {
		metrics.RecordRelease(tenantID.String(), ReleaseReasonManual, len(released))
		logger.Info("released allocations", "run_id", runID, "count", len(released))
	}
	return released, nil
}

func (e *AllocationEngine) allocate(
	ctx context.Context,
	runID string,
	recipeID string,
	batchMultiplier *decimal.Decimal,
) ([]*production.Allocation, error) {
	logger := common.LoggerFromContext(ctx)
	start := time.Now()

	var (
		result     []*production.Allocation
		tenantID   shared.TenantID
		idempotent bool
	)
	err := e.uow.Do(ctx, func(ctx context.Context, repos common.Repositories) error {
		run, err := lockRun(ctx, repos, runID)
		if err != nil {
			return err
		}
		tenantID = run.TenantID()

		if run.IsTerminal() {
			return &production.InvalidTransitionError{
				RunID:       run.ID(),
				From:        run.Status(),
				To:          run.Status(),
				Description: "cannot allocate ingredients for a terminal run",
			}
		}

		existing, err := repos.Allocations.FindByRunID(ctx, run.ID())
		if err != nil {
			return err
		}
		if active := activeAllocations(existing); len(active) > 0 {
			idempotent = true
			result = active
			return nil
		}

		if recipeID == "" {
			recipeID = run.RecipeID()
		}
		if recipeID != run.RecipeID() {
			return shared.NewValidationError("recipe_id",
				fmt.Sprintf("recipe %s does not belong to production run %s", recipeID, run.ID()))
		}
		r, err := repos.Recipes.FindByID(ctx, recipeID)
		if err != nil {
			return err
		}
		if r == nil {
			return &recipe.RecipeNotFoundError{RecipeID: recipeID}
		}

		multiplier := decimal.Zero
		if batchMultiplier != nil {
			multiplier = *batchMultiplier
		} else if multiplier, err = recipe.BatchMultiplier(run.TargetQuantity(), r); err != nil {
			return err
		}

		result, err = e.reserve(ctx, repos, run, r, multiplier, existing)
		return err
	})

	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordAllocation(tenantID.String(), metrics.ClassifyError(err), 0, elapsed)
		var insufficient *inventory.InsufficientInventoryError
		if errors.As(err, &insufficient) {
			for _, s := range insufficient.Shortfalls {
				metrics.RecordShortfall(tenantID.String(), string(s.Material.Type()))
			}
			logger.Warn("insufficient inventory", "run_id", runID, "shortfalls", len(insufficient.Shortfalls))
		}
		return nil, err
	}

	if idempotent {
		metrics.RecordAllocation(tenantID.String(), "already_allocated", len(result), elapsed)
		logger.Debug("run already allocated", "run_id", runID, "count", len(result))
		return result, nil
	}

	metrics.RecordAllocation(tenantID.String(), "allocated", len(result), elapsed)
	logger.Info("allocated ingredients", "run_id", runID, "materials", len(result))
	return result, nil
}

// reserve runs the conditional reservations for every requirement and records one
// allocation per material. All shortfalls are collected before failing.
func (e *AllocationEngine) reserve(
	ctx context.Context,
	repos common.Repositories,
	run *production.Run,
	r *recipe.Recipe,
	multiplier decimal.Decimal,
	existing []*production.Allocation,
) ([]*production.Allocation, error) {
	required, err := recipe.ResolveIngredientRequirements(r, multiplier)
	if err != nil {
		return nil, err
	}
	required = recipe.MergeByMaterial(required)

	// A fixed lock order keeps concurrent allocations from deadlocking on postgres
	sort.SliceStable(required, func(i, j int) bool {
		return required[i].Material.Key() < required[j].Material.Key()
	})

	type reservation struct {
		req  recipe.RequiredIngredient
		item *inventory.Item
	}
	reserved := make([]reservation, 0, len(required))
	var shortfalls []inventory.Shortfall

	for _, req := range required {
		qty := inventory.RoundQuantity(req.Quantity)

		item, err := repos.Items.FindByRef(ctx, req.Material)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, &inventory.MaterialNotFoundError{Material: req.Material}
		}

		ok, err := repos.Items.Reserve(ctx, req.Material, qty)
		if err != nil {
			return nil, err
		}
		if !ok {
			fresh, err := repos.Items.FindByRef(ctx, req.Material)
			if err != nil {
				return nil, err
			}
			available := decimal.Zero
			if fresh != nil {
				available = fresh.Available()
			}
			shortfalls = append(shortfalls, inventory.Shortfall{
				Material:  req.Material,
				Name:      item.Name(),
				Unit:      item.Unit(),
				Required:  qty,
				Available: available,
			})
			continue
		}

		req.Quantity = qty
		reserved = append(reserved, reservation{req: req, item: item})
	}

	if len(shortfalls) > 0 {
		return nil, &inventory.InsufficientInventoryError{RunID: run.ID(), Shortfalls: shortfalls}
	}

	previous := make(map[string]*production.Allocation, len(existing))
	for _, a := range existing {
		previous[a.Material().Key()] = a
	}

	now := e.clock.Now()
	allocations := make([]*production.Allocation, 0, len(reserved))
	for _, res := range reserved {
		if prior, ok := previous[res.req.Material.Key()]; ok {
			if err := prior.Reallocate(res.req.Quantity, res.item.UnitCost(), res.item.Name(), now); err != nil {
				return nil, err
			}
			if err := repos.Allocations.Update(ctx, prior); err != nil {
				return nil, err
			}
			allocations = append(allocations, prior)
			continue
		}

		unit := res.item.Unit()
		if unit == "" {
			unit = res.req.Unit
		}
		allocation := production.NewAllocation(
			run.ID(),
			res.req.Material,
			res.item.Name(),
			unit,
			res.item.UnitCost(),
			res.req.Quantity,
			now,
		)
		if err := repos.Allocations.Upsert(ctx, allocation); err != nil {
			return nil, err
		}
		allocations = append(allocations, allocation)
	}
	return allocations, nil
}

// releaseWithin releases the run's ALLOCATED allocations inside an open unit of work
func releaseWithin(
	ctx context.Context,
	repos common.Repositories,
	runID string,
	now time.Time,
) ([]*production.Allocation, error) {
	allocations, err := repos.Allocations.FindByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	var released []*production.Allocation
	for _, a := range allocations {
		if a.Status() != production.AllocationStatusAllocated {
			continue
		}
		qty, err := a.Release(now)
		if err != nil {
			return nil, err
		}
		if qty.IsPositive() {
			ok, err := repos.Items.ReleaseReservation(ctx, a.Material(), qty)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &inventory.ConsistencyError{
					Material: a.Material(),
					Message: fmt.Sprintf("reserved quantity is below %s while releasing run %s",
						qty, runID),
				}
			}
		}
		if err := repos.Allocations.Update(ctx, a); err != nil {
			return nil, err
		}
		released = append(released, a)
	}
	return released, nil
}

func lockRun(ctx context.Context, repos common.Repositories, runID string) (*production.Run, error) {
	run, err := repos.Runs.FindByIDForUpdate(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, &production.RunNotFoundError{RunID: runID}
	}
	return run, nil
}

func activeAllocations(allocations []*production.Allocation) []*production.Allocation {
	var active []*production.Allocation
	for _, a := range allocations {
		if a.Status().IsActive() {
			active = append(active, a)
		}
	}
	return active
}
