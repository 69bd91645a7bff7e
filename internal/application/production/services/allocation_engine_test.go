package services_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oscarts/backery2-app-sub005/internal/application/production/services"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/recipe"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub005/test/helpers"
)

func TestAllocateIngredients_ReservesScaledRequirements(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	starter := h.fx.IntermediateProduct("Starter", "g", "300", "0.01")
	bread := h.fx.Recipe("Bread", "10", "loaf",
		helpers.Line{Item: flour, Quantity: "50"},
		helpers.Line{Item: starter, Quantity: "20"},
	)
	run := h.fx.Run(bread, "20", "Mix", "Bake")

	allocations, err := h.engine.AllocateIngredients(h.ctx, run.ID(), bread.ID(), helpers.Dec("2"))
	require.NoError(t, err)
	require.Len(t, allocations, 2)

	for _, a := range allocations {
		assert.Equal(t, production.AllocationStatusAllocated, a.Status())
		assert.True(t, a.QuantityConsumed().IsZero())
	}
	assert.True(t, h.fx.Item(flour.Ref()).Reserved().Equal(helpers.Dec("100")))
	assert.True(t, h.fx.Item(starter.Ref()).Reserved().Equal(helpers.Dec("40")))
	assert.True(t, h.fx.Item(flour.Ref()).OnHand().Equal(helpers.Dec("1000")))

	loaded := h.fx.LoadRun(run.ID())
	assert.Len(t, loaded.Allocations(), 2)
}

func TestAllocateForRun_DerivesMultiplierFromTarget(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	rolls := h.fx.Recipe("Rolls", "12", "piece", helpers.Line{Item: flour, Quantity: "250"})
	run := h.fx.Run(rolls, "18", "Bake")

	allocations, err := h.engine.AllocateForRun(h.ctx, run.ID())
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.True(t, allocations[0].QuantityAllocated().Equal(helpers.Dec("375")))
}

func TestAllocateIngredients_InsufficientStockRollsBack(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	butter := h.fx.RawMaterial("Butter", "g", "10", "0.02")
	croissant := h.fx.Recipe("Croissant", "10", "piece",
		helpers.Line{Item: flour, Quantity: "100"},
		helpers.Line{Item: butter, Quantity: "15"},
	)
	run := h.fx.Run(croissant, "10", "Laminate")

	_, err := h.engine.AllocateIngredients(h.ctx, run.ID(), croissant.ID(), helpers.Dec("1"))

	var insufficient *inventory.InsufficientInventoryError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortfalls, 1)
	assert.Equal(t, butter.Ref(), insufficient.Shortfalls[0].Material)
	assert.True(t, insufficient.Shortfalls[0].Missing().Equal(helpers.Dec("5")))

	assert.True(t, h.fx.Item(butter.Ref()).Reserved().IsZero())
	assert.True(t, h.fx.Item(flour.Ref()).Reserved().IsZero(), "reservations from the failed call must roll back")
	assert.Empty(t, h.fx.LoadRun(run.ID()).Allocations())
}

func TestAllocateIngredients_ReportsEveryShortfall(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "10", "0.0025")
	sugar := h.fx.RawMaterial("Sugar", "g", "1", "0.004")
	cake := h.fx.Recipe("Cake", "1", "cake",
		helpers.Line{Item: flour, Quantity: "200"},
		helpers.Line{Item: sugar, Quantity: "100"},
	)
	run := h.fx.Run(cake, "1", "Bake")

	_, err := h.engine.AllocateForRun(h.ctx, run.ID())

	var insufficient *inventory.InsufficientInventoryError
	require.ErrorAs(t, err, &insufficient)
	assert.Len(t, insufficient.Shortfalls, 2)
}

func TestAllocateIngredients_ContaminatedMaterialIsUnavailable(t *testing.T) {
	h := newHarness(t)
	milk := h.fx.RawMaterial("Milk", "ml", "5000", "0.001")
	h.fx.Contaminate(milk)
	brioche := h.fx.Recipe("Brioche", "1", "loaf", helpers.Line{Item: milk, Quantity: "100"})
	run := h.fx.Run(brioche, "1", "Bake")

	_, err := h.engine.AllocateForRun(h.ctx, run.ID())

	var insufficient *inventory.InsufficientInventoryError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Shortfalls[0].Available.IsZero())
}

func TestAllocateIngredients_IsIdempotent(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	run := h.fx.Run(bread, "20", "Bake")

	first, err := h.engine.AllocateIngredients(h.ctx, run.ID(), bread.ID(), helpers.Dec("2"))
	require.NoError(t, err)
	second, err := h.engine.AllocateIngredients(h.ctx, run.ID(), bread.ID(), helpers.Dec("2"))
	require.NoError(t, err)

	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID(), second[0].ID())
	assert.True(t, h.fx.Item(flour.Ref()).Reserved().Equal(helpers.Dec("100")))
}

func TestReleaseAllocations_RoundTrip(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	salt := h.fx.RawMaterial("Salt", "g", "50", "0.001")
	bread := h.fx.Recipe("Bread", "10", "loaf",
		helpers.Line{Item: flour, Quantity: "50"},
		helpers.Line{Item: salt, Quantity: "1"},
	)
	run := h.fx.Run(bread, "20", "Bake")

	allocated, err := h.engine.AllocateForRun(h.ctx, run.ID())
	require.NoError(t, err)

	released, err := h.engine.ReleaseAllocations(h.ctx, run.ID())
	require.NoError(t, err)
	assert.Len(t, released, 2)
	for _, a := range released {
		assert.Equal(t, production.AllocationStatusReleased, a.Status())
		assert.NotNil(t, a.ReleasedAt())
	}
	assert.True(t, h.fx.Item(flour.Ref()).Reserved().IsZero())
	assert.True(t, h.fx.Item(salt.Ref()).Reserved().IsZero())

	// A second release has nothing left to give back
	again, err := h.engine.ReleaseAllocations(h.ctx, run.ID())
	require.NoError(t, err)
	assert.Empty(t, again)

	// Re-allocating reuses the released rows
	revived, err := h.engine.AllocateForRun(h.ctx, run.ID())
	require.NoError(t, err)
	require.Len(t, revived, 2)
	ids := map[string]bool{allocated[0].ID(): true, allocated[1].ID(): true}
	for _, a := range revived {
		assert.True(t, ids[a.ID()])
		assert.Equal(t, production.AllocationStatusAllocated, a.Status())
	}
	assert.True(t, h.fx.Item(flour.Ref()).Reserved().Equal(helpers.Dec("100")))
}

func TestReleaseAllocations_NoAllocationsIsNoop(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	run := h.fx.Run(bread, "10", "Bake")

	released, err := h.engine.ReleaseAllocations(h.ctx, run.ID())
	require.NoError(t, err)
	assert.Empty(t, released)
}

func TestAllocateIngredients_Rejections(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	cake := h.fx.Recipe("Cake", "1", "cake", helpers.Line{Item: flour, Quantity: "50"})
	run := h.fx.Run(bread, "10", "Bake")

	t.Run("unknown run", func(t *testing.T) {
		_, err := h.engine.AllocateForRun(h.ctx, "missing")
		var notFound *production.RunNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("recipe of another run", func(t *testing.T) {
		_, err := h.engine.AllocateIngredients(h.ctx, run.ID(), cake.ID(), helpers.Dec("1"))
		var validation *shared.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("non-positive multiplier", func(t *testing.T) {
		_, err := h.engine.AllocateIngredients(h.ctx, run.ID(), bread.ID(), helpers.Dec("0"))
		assert.Error(t, err)
		assert.True(t, h.fx.Item(flour.Ref()).Reserved().IsZero())
	})

	t.Run("cancelled run", func(t *testing.T) {
		cancelled := h.fx.Run(bread, "10", "Bake")
		_, err := h.completion.TransitionStatus(h.ctx, cancelled.ID(), production.RunStatusCancelled, services.TransitionOptions{})
		require.NoError(t, err)

		_, err = h.engine.AllocateForRun(h.ctx, cancelled.ID())
		var invalid *production.InvalidTransitionError
		assert.ErrorAs(t, err, &invalid)
	})
}

func TestAllocateIngredients_CorruptRecipeLine(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	run := h.fx.Run(bread, "10", "Bake")

	require.NoError(t, h.db.Table("recipe_ingredients").
		Where("recipe_id = ?", bread.ID()).
		Update("raw_material_id", nil).Error)

	_, err := h.engine.AllocateForRun(h.ctx, run.ID())
	var invalid *recipe.InvalidRecipeError
	assert.ErrorAs(t, err, &invalid)
}

func TestAllocateIngredients_ConcurrentRunsNeverOvercommit(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "100", "0.0025")
	bread := h.fx.Recipe("Bread", "1", "loaf", helpers.Line{Item: flour, Quantity: "60"})

	const contenders = 5
	runs := make([]*production.Run, contenders)
	for i := range runs {
		runs[i] = h.fx.Run(bread, "1", "Bake")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for _, run := range runs {
		wg.Add(1)
		go func(runID string) {
			defer wg.Done()
			_, err := h.engine.AllocateForRun(h.ctx, runID)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			var insufficient *inventory.InsufficientInventoryError
			assert.ErrorAs(t, err, &insufficient)
		}(run.ID())
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	item := h.fx.Item(flour.Ref())
	assert.True(t, item.Reserved().Equal(helpers.Dec("60")))
	assert.NoError(t, item.CheckInvariant())
}

func TestAllocateForRun_FractionalQuantitiesFillExactly(t *testing.T) {
	h := newHarness(t)
	yeast := h.fx.RawMaterial("Yeast", "kg", "0.3", "4.5")
	rolls := h.fx.Recipe("Rolls", "12", "piece", helpers.Line{Item: yeast, Quantity: "0.04"})
	small := h.fx.Run(rolls, "30", "Bake") // multiplier 2.5
	large := h.fx.Run(rolls, "60", "Bake") // multiplier 5

	first, err := h.engine.AllocateForRun(h.ctx, small.ID())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, first[0].QuantityAllocated().Equal(helpers.Dec("0.1")))

	second, err := h.engine.AllocateForRun(h.ctx, large.ID())
	require.NoError(t, err, "0.1 + 0.2 exactly fills 0.3")
	require.Len(t, second, 1)
	assert.True(t, second[0].QuantityAllocated().Equal(helpers.Dec("0.2")))

	item := h.fx.Item(yeast.Ref())
	assert.True(t, item.Reserved().Equal(helpers.Dec("0.3")), "reserved = %s", item.Reserved())
	assert.True(t, item.Available().IsZero())

	_, err = h.engine.ReleaseAllocations(h.ctx, small.ID())
	require.NoError(t, err)
	_, err = h.engine.ReleaseAllocations(h.ctx, large.ID())
	require.NoError(t, err)

	item = h.fx.Item(yeast.Ref())
	assert.True(t, item.Reserved().IsZero(), "reserved = %s", item.Reserved())
	assert.True(t, item.OnHand().Equal(helpers.Dec("0.3")))
}

func TestCompleteProductionRun_FractionalConsumptionIsExact(t *testing.T) {
	h := newHarness(t)
	yeast := h.fx.RawMaterial("Yeast", "kg", "0.3", "4.5")
	rolls := h.fx.Recipe("Rolls", "12", "piece", helpers.Line{Item: yeast, Quantity: "0.04"})
	small := h.fx.Run(rolls, "30", "Bake")
	large := h.fx.Run(rolls, "60", "Bake")

	_, err := h.engine.AllocateIngredients(h.ctx, small.ID(), rolls.ID(), helpers.Dec("2.5"))
	require.NoError(t, err)
	_, err = h.engine.AllocateIngredients(h.ctx, large.ID(), rolls.ID(), helpers.Dec("5"))
	require.NoError(t, err)

	h.finishSteps(small)
	result, err := h.completion.CompleteProductionRun(h.ctx, small.ID())
	require.NoError(t, err)
	assert.True(t, result.FinishedProduct.CostToProduce().Equal(helpers.Dec("0.45")))

	h.finishSteps(large)
	_, err = h.completion.CompleteProductionRun(h.ctx, large.ID())
	require.NoError(t, err)

	item := h.fx.Item(yeast.Ref())
	assert.True(t, item.OnHand().IsZero(), "on hand = %s", item.OnHand())
	assert.True(t, item.Reserved().IsZero(), "reserved = %s", item.Reserved())
}
