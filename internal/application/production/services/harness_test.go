package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Oscarts/backery2-app-sub005/internal/adapters/persistence"
	"github.com/Oscarts/backery2-app-sub005/internal/application/production/services"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub005/test/helpers"
)

type harness struct {
	t          *testing.T
	ctx        context.Context
	db         *gorm.DB
	fx         *helpers.Fixtures
	clock      *shared.MockClock
	engine     *services.AllocationEngine
	steps      *services.StepService
	completion *services.CompletionService
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithOptions(t, services.CompletionOptions{BatchPrefix: "BATCH", ShelfLife: 72 * time.Hour})
}

func newHarnessWithOptions(t *testing.T, opts services.CompletionOptions) *harness {
	db := helpers.NewTestDB(t)
	uow := persistence.NewGormUnitOfWork(db)
	clock := shared.NewMockClock(helpers.FixtureTime)
	return &harness{
		t:          t,
		ctx:        context.Background(),
		db:         db,
		fx:         helpers.NewFixtures(t, db),
		clock:      clock,
		engine:     services.NewAllocationEngine(uow, clock),
		steps:      services.NewStepService(uow, clock),
		completion: services.NewCompletionService(uow, clock, opts),
	}
}

// finishSteps completes every step of the run in order
func (h *harness) finishSteps(run *production.Run) {
	h.t.Helper()
	for _, step := range run.Steps() {
		h.clock.Advance(10 * time.Minute)
		_, err := h.steps.CompleteStep(h.ctx, run.ID(), step.ID(), "")
		require.NoError(h.t, err)
	}
}

func (h *harness) batchesBySKU(sku string) []*inventory.FinishedProduct {
	h.t.Helper()
	batches, err := persistence.NewGormFinishedProductRepository(h.db).FindBySKU(h.ctx, helpers.TestTenant, sku)
	require.NoError(h.t, err)
	return batches
}

func (h *harness) countFinishedProducts() int64 {
	h.t.Helper()
	var n int64
	require.NoError(h.t, h.db.Model(&persistence.FinishedProductModel{}).Count(&n).Error)
	return n
}
