package recipe

import "github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"

// MaterialFromColumns converts the two nullable foreign keys stored on an
// ingredient row into a material reference. Exactly one must be set.
func MaterialFromColumns(recipeID, ingredientID string, rawMaterialID, intermediateProductID *string) (inventory.MaterialRef, error) {
	hasRaw := rawMaterialID != nil && *rawMaterialID != ""
	hasIntermediate := intermediateProductID != nil && *intermediateProductID != ""

	switch {
	case hasRaw && hasIntermediate:
		return inventory.MaterialRef{}, &InvalidRecipeError{
			RecipeID:     recipeID,
			IngredientID: ingredientID,
			Reason:       "ingredient references both a raw material and an intermediate product",
		}
	case hasRaw:
		return inventory.RawMaterial(*rawMaterialID), nil
	case hasIntermediate:
		return inventory.IntermediateProduct(*intermediateProductID), nil
	default:
		return inventory.MaterialRef{}, &InvalidRecipeError{
			RecipeID:     recipeID,
			IngredientID: ingredientID,
			Reason:       "ingredient references neither a raw material nor an intermediate product",
		}
	}
}

// MaterialColumns is the inverse of MaterialFromColumns
func MaterialColumns(ref inventory.MaterialRef) (rawMaterialID, intermediateProductID *string) {
	id := ref.ID()
	switch ref.Type() {
	case inventory.MaterialTypeRawMaterial:
		return &id, nil
	case inventory.MaterialTypeIntermediateProduct:
		return nil, &id
	default:
		return nil, nil
	}
}
