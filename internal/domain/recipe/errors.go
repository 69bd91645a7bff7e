package recipe

import "fmt"

// InvalidRecipeError signals malformed recipe data, usually an ingredient that
// references neither or both material kinds. Not retryable.
type InvalidRecipeError struct {
	RecipeID     string
	IngredientID string
	Reason       string
}

func (e *InvalidRecipeError) Error() string {
	if e.IngredientID != "" {
		return fmt.Sprintf("invalid recipe %s (ingredient %s): %s", e.RecipeID, e.IngredientID, e.Reason)
	}
	return fmt.Sprintf("invalid recipe %s: %s", e.RecipeID, e.Reason)
}

// RecipeNotFoundError is returned when a recipe id does not resolve
type RecipeNotFoundError struct {
	RecipeID string
}

func (e *RecipeNotFoundError) Error() string {
	return fmt.Sprintf("recipe not found: %s", e.RecipeID)
}
