package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oscarts/backery2-app-sub005/internal/application/production/services"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/recipe"
	"github.com/Oscarts/backery2-app-sub005/test/helpers"
)

func TestCompleteProductionRun_HappyPath(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	run := h.fx.Run(bread, "20", "Mix", "Bake", "Cool")

	_, err := h.engine.AllocateIngredients(h.ctx, run.ID(), bread.ID(), helpers.Dec("2"))
	require.NoError(t, err)
	h.finishSteps(run)

	result, err := h.completion.CompleteProductionRun(h.ctx, run.ID())
	require.NoError(t, err)

	item := h.fx.Item(flour.Ref())
	assert.True(t, item.OnHand().Equal(helpers.Dec("900")))
	assert.True(t, item.Reserved().IsZero())

	product := result.FinishedProduct
	assert.Equal(t, "Bread", product.Name())
	assert.Equal(t, "BREAD", product.SKU())
	assert.True(t, product.Quantity().Equal(helpers.Dec("20")))
	assert.Equal(t, "loaf", product.Unit())
	assert.True(t, product.CostToProduce().Equal(helpers.Dec("0.25")))
	assert.Equal(t, inventory.QualityStatusPending, product.QualityStatus())
	assert.Regexp(t, `^BATCH-20260314-[0-9A-F]{12}$`, product.BatchNumber())
	assert.Equal(t, run.ID(), product.ProductionRunID())
	require.NotNil(t, product.ExpirationDate())

	require.Len(t, result.ConsumedAllocations, 1)
	consumed := result.ConsumedAllocations[0]
	assert.Equal(t, production.AllocationStatusConsumed, consumed.Status())
	assert.True(t, consumed.QuantityConsumed().Equal(consumed.QuantityAllocated()))

	loaded := h.fx.LoadRun(run.ID())
	assert.Equal(t, production.RunStatusCompleted, loaded.Status())
	assert.Equal(t, product.ID(), loaded.FinishedProductID())
	require.NotNil(t, loaded.CompletedAt())
	require.Len(t, loaded.Allocations(), 1)
	assert.Equal(t, production.AllocationStatusConsumed, loaded.Allocations()[0].Status())
}

func TestCompleteProductionRun_BlockedByPendingStep(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	run := h.fx.Run(bread, "10", "Mix", "Bake", "Cool")

	_, err := h.engine.AllocateForRun(h.ctx, run.ID())
	require.NoError(t, err)
	for _, step := range run.Steps()[:2] {
		_, err := h.steps.CompleteStep(h.ctx, run.ID(), step.ID(), "")
		require.NoError(t, err)
	}

	_, err = h.completion.CompleteProductionRun(h.ctx, run.ID())

	var incomplete *production.IncompleteStepsError
	require.ErrorAs(t, err, &incomplete)
	require.Len(t, incomplete.BlockingSteps, 1)
	assert.Equal(t, "Cool", incomplete.BlockingSteps[0].Name)
	assert.Equal(t, production.StepStatusPending, incomplete.BlockingSteps[0].Status)

	loaded := h.fx.LoadRun(run.ID())
	assert.Equal(t, production.RunStatusInProgress, loaded.Status())
	assert.Equal(t, production.AllocationStatusAllocated, loaded.Allocations()[0].Status())
	assert.True(t, h.fx.Item(flour.Ref()).OnHand().Equal(helpers.Dec("1000")))
	assert.Zero(t, h.countFinishedProducts())
}

func TestCompleteProductionRun_SkippedStepsCount(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	run := h.fx.Run(bread, "10", "Mix", "Glaze")

	_, err := h.steps.CompleteStep(h.ctx, run.ID(), run.Steps()[0].ID(), "")
	require.NoError(t, err)
	_, err = h.steps.SkipStep(h.ctx, run.ID(), run.Steps()[1].ID(), "no glaze today")
	require.NoError(t, err)

	result, err := h.completion.CompleteProductionRun(h.ctx, run.ID())
	require.NoError(t, err)

	// Nothing was allocated, so the batch carries no cost
	assert.True(t, result.FinishedProduct.CostToProduce().IsZero())
	assert.Empty(t, result.ConsumedAllocations)
}

func TestCompleteProductionRun_RequiresInProgress(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	run := h.fx.Run(bread, "10", "Bake")

	_, err := h.completion.CompleteProductionRun(h.ctx, run.ID())

	var invalid *production.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestCompleteProductionRun_ConsistencyViolationRollsBack(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	salt := h.fx.RawMaterial("Salt", "g", "100", "0.001")
	bread := h.fx.Recipe("Bread", "10", "loaf",
		helpers.Line{Item: flour, Quantity: "50"},
		helpers.Line{Item: salt, Quantity: "5"},
	)
	run := h.fx.Run(bread, "20", "Bake")

	_, err := h.engine.AllocateForRun(h.ctx, run.ID())
	require.NoError(t, err)
	h.finishSteps(run)

	// Stock vanishes behind the engine's back
	require.NoError(t, h.db.Table("raw_materials").Where("id = ?", salt.ID()).Update("quantity", 3).Error)

	_, err = h.completion.CompleteProductionRun(h.ctx, run.ID())

	var consistency *inventory.ConsistencyError
	require.ErrorAs(t, err, &consistency)
	assert.Equal(t, salt.Ref(), consistency.Material)

	loaded := h.fx.LoadRun(run.ID())
	assert.Equal(t, production.RunStatusInProgress, loaded.Status())
	for _, a := range loaded.Allocations() {
		assert.Equal(t, production.AllocationStatusAllocated, a.Status())
	}
	flourNow := h.fx.Item(flour.Ref())
	assert.True(t, flourNow.OnHand().Equal(helpers.Dec("1000")))
	assert.True(t, flourNow.Reserved().Equal(helpers.Dec("100")))
	assert.Zero(t, h.countFinishedProducts())
}

func TestCompleteProductionRun_SKUIsStableAcrossRuns(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})

	var batches []string
	for i := 0; i < 2; i++ {
		run := h.fx.Run(bread, "10", "Bake")
		_, err := h.engine.AllocateForRun(h.ctx, run.ID())
		require.NoError(t, err)
		h.finishSteps(run)

		result, err := h.completion.CompleteProductionRun(h.ctx, run.ID())
		require.NoError(t, err)
		assert.Equal(t, "BREAD", result.FinishedProduct.SKU())
		batches = append(batches, result.FinishedProduct.BatchNumber())
		h.clock.Advance(24 * time.Hour)
	}

	assert.NotEqual(t, batches[0], batches[1])
	assert.Len(t, h.batchesBySKU("BREAD"), 2)
	assert.True(t, h.fx.Item(flour.Ref()).OnHand().Equal(helpers.Dec("900")))
}

func TestCompleteProductionRun_MintedSKUAvoidsOtherProducts(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	plain := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	shouty := h.fx.Recipe("Bread!", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})

	var skus []string
	for _, r := range []*recipe.Recipe{plain, shouty} {
		run := h.fx.Run(r, "10", "Bake")
		h.finishSteps(run)
		result, err := h.completion.CompleteProductionRun(h.ctx, run.ID())
		require.NoError(t, err)
		skus = append(skus, result.FinishedProduct.SKU())
	}

	assert.Equal(t, []string{"BREAD", "BREAD-2"}, skus)
}

func TestTransitionStatus(t *testing.T) {
	setup := func(t *testing.T, opts services.CompletionOptions) (*harness, *inventory.Item, *production.Run) {
		h := newHarnessWithOptions(t, opts)
		flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
		bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
		run := h.fx.Run(bread, "20", "Mix", "Bake")
		_, err := h.engine.AllocateForRun(h.ctx, run.ID())
		require.NoError(t, err)
		return h, flour, run
	}

	t.Run("cancel releases allocations", func(t *testing.T) {
		h, flour, run := setup(t, services.CompletionOptions{})

		updated, err := h.completion.TransitionStatus(h.ctx, run.ID(), production.RunStatusCancelled,
			services.TransitionOptions{Notes: "oven broken"})
		require.NoError(t, err)

		assert.Equal(t, production.RunStatusCancelled, updated.Status())
		assert.Equal(t, "oven broken", updated.Notes())
		assert.True(t, h.fx.Item(flour.Ref()).Reserved().IsZero())
		assert.Equal(t, production.AllocationStatusReleased, updated.Allocations()[0].Status())
	})

	t.Run("terminal runs reject further transitions", func(t *testing.T) {
		h, _, run := setup(t, services.CompletionOptions{})
		_, err := h.completion.TransitionStatus(h.ctx, run.ID(), production.RunStatusCancelled, services.TransitionOptions{})
		require.NoError(t, err)

		_, err = h.completion.TransitionStatus(h.ctx, run.ID(), production.RunStatusInProgress, services.TransitionOptions{})
		var invalid *production.InvalidTransitionError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("hold keeps allocations by default", func(t *testing.T) {
		h, flour, run := setup(t, services.CompletionOptions{})
		_, err := h.completion.TransitionStatus(h.ctx, run.ID(), production.RunStatusInProgress, services.TransitionOptions{})
		require.NoError(t, err)

		updated, err := h.completion.TransitionStatus(h.ctx, run.ID(), production.RunStatusOnHold, services.TransitionOptions{})
		require.NoError(t, err)

		assert.Equal(t, production.RunStatusOnHold, updated.Status())
		assert.True(t, h.fx.Item(flour.Ref()).Reserved().Equal(helpers.Dec("100")))
	})

	t.Run("hold releases when configured", func(t *testing.T) {
		h, flour, run := setup(t, services.CompletionOptions{ReleaseOnHold: true})

		_, err := h.completion.TransitionStatus(h.ctx, run.ID(), production.RunStatusOnHold, services.TransitionOptions{})
		require.NoError(t, err)
		assert.True(t, h.fx.Item(flour.Ref()).Reserved().IsZero())
	})

	t.Run("per-call override wins over configuration", func(t *testing.T) {
		h, flour, run := setup(t, services.CompletionOptions{ReleaseOnHold: true})
		keep := false

		_, err := h.completion.TransitionStatus(h.ctx, run.ID(), production.RunStatusOnHold,
			services.TransitionOptions{ReleaseAllocations: &keep})
		require.NoError(t, err)
		assert.True(t, h.fx.Item(flour.Ref()).Reserved().Equal(helpers.Dec("100")))
	})

	t.Run("completed goes through completion", func(t *testing.T) {
		h, flour, run := setup(t, services.CompletionOptions{})
		h.finishSteps(run)

		updated, err := h.completion.TransitionStatus(h.ctx, run.ID(), production.RunStatusCompleted, services.TransitionOptions{})
		require.NoError(t, err)
		assert.Equal(t, production.RunStatusCompleted, updated.Status())
		assert.True(t, h.fx.Item(flour.Ref()).OnHand().Equal(helpers.Dec("900")))
	})
}
