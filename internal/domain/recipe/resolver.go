package recipe

import (
	"github.com/shopspring/decimal"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
)

// RequiredIngredient is the resolved demand of one ingredient line for a batch
type RequiredIngredient struct {
	IngredientID string
	Material     inventory.MaterialRef
	Quantity     decimal.Decimal
	Unit         string
}

// MaterialType is a shorthand for Material.Type()
func (r RequiredIngredient) MaterialType() inventory.MaterialType {
	return r.Material.Type()
}

// BatchMultiplier is targetQuantity / yield. It is not necessarily an integer.
func BatchMultiplier(targetQuantity decimal.Decimal, r *Recipe) (decimal.Decimal, error) {
	if !r.yieldQuantity.IsPositive() {
		return decimal.Zero, &InvalidRecipeError{RecipeID: r.id, Reason: "yield quantity must be positive"}
	}
	if !targetQuantity.IsPositive() {
		return decimal.Zero, &InvalidRecipeError{RecipeID: r.id, Reason: "target quantity must be positive"}
	}
	return targetQuantity.Div(r.yieldQuantity), nil
}

// ResolveIngredientRequirements scales every ingredient of the recipe by the batch
// multiplier. One entry is returned per ingredient line, in recipe order, with
// quantity = ingredient quantity x multiplier in the ingredient's own unit.
// Ingredient units are assumed to match inventory units.
func ResolveIngredientRequirements(r *Recipe, batchMultiplier decimal.Decimal) ([]RequiredIngredient, error) {
	if !batchMultiplier.IsPositive() {
		return nil, &InvalidRecipeError{RecipeID: r.id, Reason: "batch multiplier must be positive"}
	}

	required := make([]RequiredIngredient, 0, len(r.ingredients))
	for _, ing := range r.ingredients {
		if err := r.validateIngredient(ing); err != nil {
			return nil, err
		}
		required = append(required, RequiredIngredient{
			IngredientID: ing.id,
			Material:     ing.material,
			Quantity:     ing.quantity.Mul(batchMultiplier),
			Unit:         ing.unit,
		})
	}
	return required, nil
}

// MergeByMaterial folds requirements that draw on the same material into one
// entry, keeping first-seen order.
func MergeByMaterial(required []RequiredIngredient) []RequiredIngredient {
	index := make(map[string]int, len(required))
	merged := make([]RequiredIngredient, 0, len(required))
	for _, req := range required {
		if pos, ok := index[req.Material.Key()]; ok {
			merged[pos].Quantity = merged[pos].Quantity.Add(req.Quantity)
			continue
		}
		index[req.Material.Key()] = len(merged)
		merged = append(merged, req)
	}
	return merged
}
