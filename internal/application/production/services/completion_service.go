package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Oscarts/backery2-app-sub005/internal/adapters/metrics"
	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/recipe"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

const maxSKUAttempts = 100

// CompletionOptions configures finished-product creation and status side effects
type CompletionOptions struct {
	// BatchPrefix starts every batch number, e.g. "BATCH"
	BatchPrefix string

	// ShelfLife sets the expiration date of new batches; zero leaves it empty
	ShelfLife time.Duration

	// ReleaseOnHold releases allocations whenever a run is put ON_HOLD unless the
	// caller overrides it per transition
	ReleaseOnHold bool
}

// TransitionOptions are per-call overrides for TransitionStatus
type TransitionOptions struct {
	// ReleaseAllocations overrides CompletionOptions.ReleaseOnHold for an ON_HOLD transition
	ReleaseAllocations *bool

	// Notes replaces the run notes when non-empty
	Notes string
}

// CompletionResult is returned by CompleteProductionRun
type CompletionResult struct {
	Run                 *production.Run
	FinishedProduct     *inventory.FinishedProduct
	ConsumedAllocations []*production.Allocation
}

// CompletionService drives the production run state machine. Completion consumes
// the run's reservations, deducts stock and creates the finished batch, all in one
// transaction.
type CompletionService struct {
	uow   common.UnitOfWork
	clock shared.Clock
	opts  CompletionOptions
}

// NewCompletionService creates a new completion service
func NewCompletionService(uow common.UnitOfWork, clock shared.Clock, opts CompletionOptions) *CompletionService {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &CompletionService{uow: uow, clock: clock, opts: opts}
}

// CompleteProductionRun finishes an IN_PROGRESS run whose steps are all COMPLETED or SKIPPED
func (s *CompletionService) CompleteProductionRun(ctx context.Context, runID string) (*CompletionResult, error) {
	logger := common.LoggerFromContext(ctx)
	start := time.Now()

	var (
		result *CompletionResult
		from   production.RunStatus
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos common.Repositories) error {
		run, err := lockRun(ctx, repos, runID)
		if err != nil {
			return err
		}
		from = run.Status()

		result, err = s.completeWithin(ctx, repos, run)
		return err
	})
	if err != nil {
		return nil, err
	}

	product := result.FinishedProduct
	tenant := result.Run.TenantID().String()
	metrics.RecordRunTransition(tenant, string(from), string(production.RunStatusCompleted))
	metrics.RecordCompletion(
		tenant,
		product.SKU(),
		product.Quantity().InexactFloat64(),
		product.CostToProduce().InexactFloat64(),
		time.Since(start).Seconds(),
	)
	logger.Info("production run completed",
		"run_id", runID,
		"finished_product_id", product.ID(),
		"sku", product.SKU(),
		"batch_number", product.BatchNumber(),
		"quantity", product.Quantity().String(),
		"cost", product.CostToProduce().String(),
	)
	return result, nil
}

// TransitionStatus applies a requested status change. COMPLETED runs the full
// completion; CANCELLED always releases allocations; ON_HOLD releases them when
// configured or requested.
func (s *CompletionService) TransitionStatus(
	ctx context.Context,
	runID string,
	to production.RunStatus,
	opts TransitionOptions,
) (*production.Run, error) {
	if to == production.RunStatusCompleted {
		result, err := s.CompleteProductionRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		return result.Run, nil
	}

	logger := common.LoggerFromContext(ctx)

	var (
		updated  *production.Run
		from     production.RunStatus
		released []*production.Allocation
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos common.Repositories) error {
		run, err := lockRun(ctx, repos, runID)
		if err != nil {
			return err
		}
		from = run.Status()
		now := s.clock.Now()

		release := false
		switch to {
		case production.RunStatusInProgress:
			err = run.Start(now)
		case production.RunStatusOnHold:
			err = run.Hold(now)
			release = s.opts.ReleaseOnHold
			if opts.ReleaseAllocations != nil {
				release = *opts.ReleaseAllocations
			}
		case production.RunStatusCancelled:
			err = run.Cancel(now)
			release = true
		default:
			err = run.CheckTransition(to)
		}
		if err != nil {
			return err
		}
		if opts.Notes != "" {
			run.SetNotes(opts.Notes)
		}

		if release {
			if released, err = releaseWithin(ctx, repos, run.ID(), now); err != nil {
				return err
			}
		}

		if err := repos.Runs.Update(ctx, run); err != nil {
			return err
		}

		allocations, err := repos.Allocations.FindByRunID(ctx, run.ID())
		if err != nil {
			return err
		}
		run.AttachAllocations(allocations)
		updated = run
		return nil
	})
	if err != nil {
		return nil, err
	}

	tenant := updated.TenantID().String()
	metrics.RecordRunTransition(tenant, string(from), string(to))
	if len(released) > 0 {
		reason := ReleaseReasonOnHold
		if to == production.RunStatusCancelled {
			reason = ReleaseReasonCancelled
		}
		metrics.RecordRelease(tenant, reason, len(released))
	}
	logger.Info("production run status changed",
		"run_id", runID, "from", from, "to", to, "released", len(released))
	return updated, nil
}

func (s *CompletionService) completeWithin(
	ctx context.Context,
	repos common.Repositories,
	run *production.Run,
) (*CompletionResult, error) {
	logger := common.LoggerFromContext(ctx)

	if err := run.CheckTransition(production.RunStatusCompleted); err != nil {
		return nil, err
	}

	r, err := repos.Recipes.FindByID(ctx, run.RecipeID())
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &recipe.RecipeNotFoundError{RecipeID: run.RecipeID()}
	}

	now := s.clock.Now()

	allocations, err := repos.Allocations.FindByRunID(ctx, run.ID())
	if err != nil {
		return nil, err
	}

	var consumed []*production.Allocation
	cost := decimal.Zero
	for _, a := range allocations {
		if a.Status() != production.AllocationStatusAllocated {
			continue
		}
		qty, err := a.Consume(now)
		if err != nil {
			return nil, err
		}
		if qty.IsPositive() {
			ok, err := repos.Items.Consume(ctx, a.Material(), qty)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &inventory.ConsistencyError{
					Material: a.Material(),
					Message: fmt.Sprintf("cannot deduct %s %s for run %s: on-hand or reserved quantity too low",
						qty, a.Unit(), run.ID()),
				}
			}
		}
		if err := repos.Allocations.Update(ctx, a); err != nil {
			return nil, err
		}
		consumed = append(consumed, a)
		cost = cost.Add(a.Cost())
	}
	if len(consumed) == 0 {
		logger.Warn("completing production run without consumed ingredients", "run_id", run.ID())
	}

	productName := inventory.NormalizeProductName(r.Name())
	sku, err := resolveSKU(ctx, repos, run.TenantID(), productName)
	if err != nil {
		return nil, err
	}

	unit := run.TargetUnit()
	if unit == "" {
		unit = r.YieldUnit()
	}
	product, err := inventory.NewFinishedProduct(inventory.FinishedProductParams{
		TenantID:        run.TenantID(),
		Name:            productName,
		SKU:             sku,
		BatchNumber:     inventory.NewBatchNumber(s.opts.BatchPrefix, now),
		Quantity:        run.TargetQuantity(),
		Unit:            unit,
		CostToProduce:   cost,
		ProductionRunID: run.ID(),
		ProductionDate:  now,
		ShelfLife:       s.opts.ShelfLife,
	})
	if err != nil {
		return nil, err
	}
	if err := repos.FinishedProducts.Create(ctx, product); err != nil {
		return nil, err
	}

	if err := run.Complete(now, product.ID()); err != nil {
		return nil, err
	}
	if err := repos.Runs.Update(ctx, run); err != nil {
		return nil, err
	}

	final, err := repos.Allocations.FindByRunID(ctx, run.ID())
	if err != nil {
		return nil, err
	}
	run.AttachAllocations(final)

	return &CompletionResult{Run: run, FinishedProduct: product, ConsumedAllocations: consumed}, nil
}

// resolveSKU returns the SKU for a product name: the registered mapping first, then
// the SKU of the latest batch with that name, and only then a freshly minted one.
// Minted SKUs never collide with a SKU owned by a different product name.
func resolveSKU(
	ctx context.Context,
	repos common.Repositories,
	tenantID shared.TenantID,
	productName string,
) (string, error) {
	sku, found, err := repos.SKUs.LookupSKU(ctx, tenantID, productName)
	if err != nil {
		return "", err
	}
	if found {
		return sku, nil
	}

	latest, err := repos.FinishedProducts.FindLatestByName(ctx, tenantID, productName)
	if err != nil {
		return "", err
	}
	if latest != nil && latest.SKU() != "" {
		available, err := skuAvailableFor(ctx, repos, tenantID, latest.SKU(), productName)
		if err != nil {
			return "", err
		}
		if available {
			return repos.SKUs.Register(ctx, tenantID, productName, latest.SKU())
		}
	}

	base := inventory.MintSKU(productName)
	for attempt := 1; attempt <= maxSKUAttempts; attempt++ {
		candidate := inventory.SKUCandidate(base, attempt)
		available, err := skuAvailableFor(ctx, repos, tenantID, candidate, productName)
		if err != nil {
			return "", err
		}
		if available {
			return repos.SKUs.Register(ctx, tenantID, productName, candidate)
		}
	}
	return "", fmt.Errorf("no free sku for %q after %d attempts", productName, maxSKUAttempts)
}

// skuAvailableFor reports whether sku is unused or already belongs to productName,
// checking both the registry and existing batches
func skuAvailableFor(
	ctx context.Context,
	repos common.Repositories,
	tenantID shared.TenantID,
	sku string,
	productName string,
) (bool, error) {
	owner, owned, err := repos.SKUs.OwnerOf(ctx, tenantID, sku)
	if err != nil {
		return false, err
	}
	if owned && owner != productName {
		return false, nil
	}

	batches, err := repos.FinishedProducts.FindBySKU(ctx, tenantID, sku)
	if err != nil {
		return false, err
	}
	for _, b := range batches {
		if inventory.NormalizeProductName(b.Name()) != productName {
			return false, nil
		}
	}
	return true, nil
}
