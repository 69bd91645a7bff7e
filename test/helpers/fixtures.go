package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Oscarts/backery2-app-sub005/internal/adapters/persistence"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/recipe"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// TestTenant is the tenant every fixture belongs to
const TestTenant = shared.TenantID("bakery-test")

// FixtureTime is the fixed clock start used by fixtures
var FixtureTime = time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)

// Dec parses a decimal literal and panics on malformed input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Fixtures seeds catalog and production rows through the real repositories
type Fixtures struct {
	t  *testing.T
	db *gorm.DB
}

// NewFixtures creates fixtures bound to db
func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

// RawMaterial stores a raw material with the given on-hand quantity and unit cost
func (f *Fixtures) RawMaterial(name, unit, onHand, unitCost string) *inventory.Item {
	return f.item(inventory.MaterialTypeRawMaterial, name, unit, onHand, unitCost)
}

// IntermediateProduct stores an intermediate product
func (f *Fixtures) IntermediateProduct(name, unit, onHand, unitCost string) *inventory.Item {
	return f.item(inventory.MaterialTypeIntermediateProduct, name, unit, onHand, unitCost)
}

func (f *Fixtures) item(materialType inventory.MaterialType, name, unit, onHand, unitCost string) *inventory.Item {
	f.t.Helper()
	item, err := inventory.NewItem(materialType, TestTenant, name, unit, Dec(onHand), Dec(unitCost), FixtureTime)
	require.NoError(f.t, err)
	require.NoError(f.t, persistence.NewGormItemRepository(f.db).Save(context.Background(), item))
	return item
}

// Contaminate flags a stored item as contaminated
func (f *Fixtures) Contaminate(item *inventory.Item) {
	f.t.Helper()
	item.MarkContaminated(true)
	require.NoError(f.t, persistence.NewGormItemRepository(f.db).Save(context.Background(), item))
}

// Line is one recipe ingredient line for Recipe
type Line struct {
	Item     *inventory.Item
	Quantity string
}

// Recipe stores a recipe producing yield units from the given lines
func (f *Fixtures) Recipe(name, yield, yieldUnit string, lines ...Line) *recipe.Recipe {
	f.t.Helper()
	ingredients := make([]recipe.Ingredient, 0, len(lines))
	for _, l := range lines {
		ingredients = append(ingredients, recipe.NewIngredient(l.Item.Ref(), Dec(l.Quantity), l.Item.Unit()))
	}
	r, err := recipe.NewRecipe(TestTenant, name, Dec(yield), yieldUnit, ingredients, FixtureTime)
	require.NoError(f.t, err)
	require.NoError(f.t, persistence.NewGormRecipeRepository(f.db).Save(context.Background(), r))
	return r
}

// Run stores a PLANNED run of the recipe with the given step names
func (f *Fixtures) Run(r *recipe.Recipe, target string, steps ...string) *production.Run {
	f.t.Helper()
	defs := make([]production.StepDefinition, 0, len(steps))
	for _, s := range steps {
		defs = append(defs, production.StepDefinition{Name: s})
	}
	run, err := production.NewRun(TestTenant, r.Name()+" run", r.ID(), Dec(target), r.YieldUnit(), defs, FixtureTime)
	require.NoError(f.t, err)
	require.NoError(f.t, persistence.NewGormProductionRunRepository(f.db).Create(context.Background(), run))
	return run
}

// Item reloads an item from storage
func (f *Fixtures) Item(ref inventory.MaterialRef) *inventory.Item {
	f.t.Helper()
	item, err := persistence.NewGormItemRepository(f.db).FindByRef(context.Background(), ref)
	require.NoError(f.t, err)
	require.NotNil(f.t, item)
	return item
}

// LoadRun reloads a run with its steps and allocations
func (f *Fixtures) LoadRun(id string) *production.Run {
	f.t.Helper()
	run, err := persistence.NewGormProductionRunRepository(f.db).FindByID(context.Background(), id)
	require.NoError(f.t, err)
	require.NotNil(f.t, run)
	return run
}
