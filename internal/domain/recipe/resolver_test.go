package recipe

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
)

var testNow = time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestResolveIngredientRequirements_ScalesEveryLine(t *testing.T) {
	// Arrange: Bread yields 10, needs 50 flour and 2 dough
	r, err := NewRecipe("tenant-a", "Bread", dec("10"), "pcs", []Ingredient{
		NewIngredient(inventory.RawMaterial("flour"), dec("50"), "g"),
		NewIngredient(inventory.IntermediateProduct("dough"), dec("2"), "kg"),
	}, testNow)
	require.NoError(t, err)

	// Act
	required, err := ResolveIngredientRequirements(r, dec("2"))

	// Assert
	require.NoError(t, err)
	require.Len(t, required, 2)
	assert.Equal(t, inventory.RawMaterial("flour"), required[0].Material)
	assert.True(t, required[0].Quantity.Equal(dec("100")))
	assert.Equal(t, "g", required[0].Unit)
	assert.Equal(t, inventory.MaterialTypeIntermediateProduct, required[1].MaterialType())
	assert.True(t, required[1].Quantity.Equal(dec("4")))
}

func TestResolveIngredientRequirements_FractionalMultiplier(t *testing.T) {
	r, err := NewRecipe("tenant-a", "Croissant", dec("12"), "pcs", []Ingredient{
		NewIngredient(inventory.RawMaterial("butter"), dec("250"), "g"),
	}, testNow)
	require.NoError(t, err)

	multiplier, err := BatchMultiplier(dec("18"), r)
	require.NoError(t, err)
	required, err := ResolveIngredientRequirements(r, multiplier)

	require.NoError(t, err)
	assert.True(t, multiplier.Equal(dec("1.5")))
	assert.True(t, required[0].Quantity.Equal(dec("375")))
}

func TestResolveIngredientRequirements_EmptyRecipe(t *testing.T) {
	r, err := NewRecipe("tenant-a", "Water", dec("1"), "l", nil, testNow)
	require.NoError(t, err)

	required, err := ResolveIngredientRequirements(r, dec("3"))

	require.NoError(t, err)
	assert.Empty(t, required)
}

func TestResolveIngredientRequirements_RejectsNonPositiveMultiplier(t *testing.T) {
	r, err := NewRecipe("tenant-a", "Bread", dec("10"), "pcs", nil, testNow)
	require.NoError(t, err)

	for _, m := range []string{"0", "-1"} {
		_, err := ResolveIngredientRequirements(r, dec(m))

		var invalid *InvalidRecipeError
		assert.True(t, errors.As(err, &invalid), "multiplier %s", m)
	}
}

func TestResolveIngredientRequirements_RejectsCorruptStoredLine(t *testing.T) {
	// A stored row may carry a line that NewRecipe would have refused
	r := ReconstructRecipe("recipe-1", "tenant-a", "Bread", "", dec("10"), "pcs", []Ingredient{
		ReconstructIngredient("ing-1", inventory.MaterialRef{}, dec("50"), "g", ""),
	}, testNow)

	_, err := ResolveIngredientRequirements(r, dec("1"))

	var invalid *InvalidRecipeError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "ing-1", invalid.IngredientID)
}

func TestBatchMultiplier_RejectsZeroYield(t *testing.T) {
	r := ReconstructRecipe("recipe-1", "tenant-a", "Bread", "", decimal.Zero, "pcs", nil, testNow)

	_, err := BatchMultiplier(dec("10"), r)

	var invalid *InvalidRecipeError
	assert.True(t, errors.As(err, &invalid))
}

func TestMergeByMaterial_SumsRepeatedMaterials(t *testing.T) {
	required := []RequiredIngredient{
		{Material: inventory.RawMaterial("flour"), Quantity: dec("100"), Unit: "g"},
		{Material: inventory.RawMaterial("salt"), Quantity: dec("2"), Unit: "g"},
		{Material: inventory.RawMaterial("flour"), Quantity: dec("20"), Unit: "g"},
	}

	merged := MergeByMaterial(required)

	require.Len(t, merged, 2)
	assert.Equal(t, inventory.RawMaterial("flour"), merged[0].Material)
	assert.True(t, merged[0].Quantity.Equal(dec("120")))
	assert.Equal(t, inventory.RawMaterial("salt"), merged[1].Material)
}

func TestNewRecipe_ValidatesIngredients(t *testing.T) {
	tests := []struct {
		name       string
		ingredient Ingredient
	}{
		{"no material", NewIngredient(inventory.MaterialRef{}, dec("1"), "g")},
		{"zero quantity", NewIngredient(inventory.RawMaterial("flour"), decimal.Zero, "g")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecipe("tenant-a", "Bread", dec("10"), "pcs", []Ingredient{tt.ingredient}, testNow)

			var invalid *InvalidRecipeError
			assert.True(t, errors.As(err, &invalid))
		})
	}
}

func TestMaterialFromColumns(t *testing.T) {
	raw, inter := "raw-1", "inter-1"

	ref, err := MaterialFromColumns("r", "i", &raw, nil)
	require.NoError(t, err)
	assert.Equal(t, inventory.RawMaterial("raw-1"), ref)

	ref, err = MaterialFromColumns("r", "i", nil, &inter)
	require.NoError(t, err)
	assert.Equal(t, inventory.IntermediateProduct("inter-1"), ref)

	var invalid *InvalidRecipeError
	_, err = MaterialFromColumns("r", "i", &raw, &inter)
	assert.True(t, errors.As(err, &invalid))
	_, err = MaterialFromColumns("r", "i", nil, nil)
	assert.True(t, errors.As(err, &invalid))

	gotRaw, gotInter := MaterialColumns(inventory.IntermediateProduct("inter-1"))
	assert.Nil(t, gotRaw)
	require.NotNil(t, gotInter)
	assert.Equal(t, "inter-1", *gotInter)
}
