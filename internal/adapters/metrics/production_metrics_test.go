package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oscarts/backery2-app-sub005/internal/application/mediator"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/recipe"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub005/test/helpers"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{&inventory.InsufficientInventoryError{RunID: "r"}, "insufficient_inventory"},
		{&inventory.ConsistencyError{Message: "x"}, "consistency_error"},
		{&production.IncompleteStepsError{RunID: "r"}, "incomplete_steps"},
		{&production.InvalidTransitionError{RunID: "r"}, "invalid_transition"},
		{&production.InvalidStepTransitionError{StepID: "s"}, "invalid_transition"},
		{&recipe.InvalidRecipeError{RecipeID: "r"}, "invalid_recipe"},
		{shared.NewStorageError("save", errors.New("disk full")), "storage_error"},
		{&production.RunNotFoundError{RunID: "r"}, "not_found"},
		{fmt.Errorf("wrapped: %w", &recipe.RecipeNotFoundError{RecipeID: "r"}), "not_found"},
		{errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestProductionCollector_RecordsThroughGlobalFunctions(t *testing.T) {
	InitRegistry("bakerytest")
	t.Cleanup(Reset)

	collector := NewProductionMetricsCollector(nil)
	require.NoError(t, collector.Register())
	SetGlobalProductionCollector(collector)

	RecordAllocation("t1", "allocated", 3, 0.01)
	RecordAllocation("t1", "allocated", 2, 0.02)
	RecordShortfall("t1", "RAW_MATERIAL")
	RecordRelease("t1", "cancelled", 4)
	RecordCompletion("t1", "BREAD", 20, 0.25, 0.05)
	RecordRunTransition("t1", "IN_PROGRESS", "COMPLETED")

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.allocationsTotal.WithLabelValues("t1", "allocated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.shortfallsTotal.WithLabelValues("t1", "RAW_MATERIAL")))
	assert.Equal(t, 4.0, testutil.ToFloat64(collector.releasesTotal.WithLabelValues("t1", "cancelled")))
	assert.Equal(t, 20.0, testutil.ToFloat64(collector.producedQuantity.WithLabelValues("t1", "BREAD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.runTransitionsTotal.WithLabelValues("t1", "IN_PROGRESS", "COMPLETED")))

	count, err := testutil.GatherAndCount(Registry, "bakerytest_production_allocations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordFunctions_NoCollectorIsSafe(t *testing.T) {
	Reset()
	assert.NotPanics(t, func() {
		RecordAllocation("t1", "allocated", 1, 0)
		RecordStepTransition("t1", "COMPLETED")
	})
	assert.False(t, IsEnabled())
	assert.NoError(t, WriteTextfile(t.TempDir()+"/metrics.prom"))
}

func TestProductionCollector_Refresh(t *testing.T) {
	InitRegistry("")
	t.Cleanup(Reset)

	db := helpers.NewTestDB(t)
	fx := helpers.NewFixtures(t, db)
	flour := fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	fx.Run(bread, "10", "Bake")
	fx.Run(bread, "20", "Bake")
	require.NoError(t, db.Table("raw_materials").Where("id = ?", flour.ID()).
		Update("reserved_quantity", 150).Error)

	collector := NewProductionMetricsCollector(db)
	require.NoError(t, collector.Register())
	require.NoError(t, collector.Refresh(context.Background()))

	tenant := helpers.TestTenant.String()
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.runsByStatus.WithLabelValues(tenant, "PLANNED")))
	assert.Equal(t, 150.0, testutil.ToFloat64(collector.reservedQuantity.WithLabelValues(tenant, "RAW_MATERIAL")))
}

func TestPrometheusMiddleware_RecordsOutcome(t *testing.T) {
	InitRegistry("")
	t.Cleanup(Reset)

	collector := NewCommandMetricsCollector()
	require.NoError(t, collector.Register())
	mw := PrometheusMiddleware(collector)

	type AllocateIngredientsCommand struct{}
	_, err := mw(context.Background(), &AllocateIngredientsCommand{}, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		time.Sleep(time.Millisecond)
		return nil, &inventory.InsufficientInventoryError{RunID: "r"}
	})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		collector.commandsTotal.WithLabelValues("AllocateIngredientsCommand", "insufficient_inventory")))
}
