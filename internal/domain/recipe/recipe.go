package recipe

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// Ingredient is one line of a recipe. It draws from exactly one material.
type Ingredient struct {
	id       string
	material inventory.MaterialRef
	quantity decimal.Decimal
	unit     string
	notes    string
}

// NewIngredient creates an ingredient line with a generated id
func NewIngredient(material inventory.MaterialRef, quantity decimal.Decimal, unit string) Ingredient {
	return Ingredient{
		id:       uuid.New().String(),
		material: material,
		quantity: quantity,
		unit:     unit,
	}
}

// ReconstructIngredient rebuilds an ingredient line from persistence
func ReconstructIngredient(id string, material inventory.MaterialRef, quantity decimal.Decimal, unit, notes string) Ingredient {
	return Ingredient{id: id, material: material, quantity: quantity, unit: unit, notes: notes}
}

func (i Ingredient) ID() string                      { return i.id }
func (i Ingredient) Material() inventory.MaterialRef { return i.material }
func (i Ingredient) Quantity() decimal.Decimal       { return i.quantity }
func (i Ingredient) Unit() string                    { return i.unit }
func (i Ingredient) Notes() string                   { return i.notes }

// Recipe describes how to produce yieldQuantity units of a product
type Recipe struct {
	id            string
	tenantID      shared.TenantID
	name          string
	description   string
	yieldQuantity decimal.Decimal
	yieldUnit     string
	ingredients   []Ingredient
	createdAt     time.Time
}

// NewRecipe validates and creates a recipe
func NewRecipe(
	tenantID shared.TenantID,
	name string,
	yieldQuantity decimal.Decimal,
	yieldUnit string,
	ingredients []Ingredient,
	now time.Time,
) (*Recipe, error) {
	r := &Recipe{
		id:            uuid.New().String(),
		tenantID:      tenantID,
		name:          strings.TrimSpace(name),
		yieldQuantity: yieldQuantity,
		yieldUnit:     yieldUnit,
		ingredients:   ingredients,
		createdAt:     now,
	}
	if r.name == "" {
		return nil, &InvalidRecipeError{RecipeID: r.id, Reason: "recipe name cannot be empty"}
	}
	if !yieldQuantity.IsPositive() {
		return nil, &InvalidRecipeError{RecipeID: r.id, Reason: "yield quantity must be positive"}
	}
	for _, ing := range ingredients {
		if err := r.validateIngredient(ing); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ReconstructRecipe rebuilds a recipe from persistence without validation;
// the resolver re-checks every ingredient before use.
func ReconstructRecipe(
	id string,
	tenantID shared.TenantID,
	name string,
	description string,
	yieldQuantity decimal.Decimal,
	yieldUnit string,
	ingredients []Ingredient,
	createdAt time.Time,
) *Recipe {
	return &Recipe{
		id:            id,
		tenantID:      tenantID,
		name:          name,
		description:   description,
		yieldQuantity: yieldQuantity,
		yieldUnit:     yieldUnit,
		ingredients:   ingredients,
		createdAt:     createdAt,
	}
}

func (r *Recipe) ID() string                     { return r.id }
func (r *Recipe) TenantID() shared.TenantID      { return r.tenantID }
func (r *Recipe) Name() string                   { return r.name }
func (r *Recipe) Description() string            { return r.description }
func (r *Recipe) YieldQuantity() decimal.Decimal { return r.yieldQuantity }
func (r *Recipe) YieldUnit() string              { return r.yieldUnit }
func (r *Recipe) CreatedAt() time.Time           { return r.createdAt }

// Ingredients returns a copy of the ingredient lines
func (r *Recipe) Ingredients() []Ingredient {
	out := make([]Ingredient, len(r.ingredients))
	copy(out, r.ingredients)
	return out
}

// SetDescription updates the free-text description
func (r *Recipe) SetDescription(description string) {
	r.description = description
}

func (r *Recipe) validateIngredient(ing Ingredient) error {
	if !ing.material.IsValid() {
		return &InvalidRecipeError{
			RecipeID:     r.id,
			IngredientID: ing.id,
			Reason:       "ingredient must reference exactly one raw material or intermediate product",
		}
	}
	if !ing.quantity.IsPositive() {
		return &InvalidRecipeError{
			RecipeID:     r.id,
			IngredientID: ing.id,
			Reason:       "ingredient quantity must be positive",
		}
	}
	return nil
}
