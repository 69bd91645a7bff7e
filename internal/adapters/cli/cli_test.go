package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oscarts/backery2-app-sub005/internal/adapters/persistence"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub005/internal/infrastructure/config"
	"github.com/Oscarts/backery2-app-sub005/internal/infrastructure/database"
)

const catalogYAML = `
raw_materials:
  - name: Flour
    unit: g
    quantity: "1000"
    unit_cost: 0.0025
  - name: Salt
    unit: g
    quantity: 200
intermediate_products:
  - name: Starter
    unit: g
    quantity: "300.5"
recipes:
  - name: Sourdough
    yield_quantity: "10"
    yield_unit: loaf
    ingredients:
      - material: Flour
        quantity: "50"
        unit: g
      - material: Starter
        type: INTERMEDIATE_PRODUCT
        quantity: "12.5"
        unit: g
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReadCatalogFile(t *testing.T) {
	file, err := readCatalogFile(writeFile(t, "catalog.yaml", catalogYAML))
	require.NoError(t, err)

	command, err := file.toCommand("north")
	require.NoError(t, err)

	assert.Equal(t, "north", command.TenantID)
	require.Len(t, command.RawMaterials, 2)
	assert.Equal(t, "0.0025", command.RawMaterials[0].UnitCost.String())
	assert.Equal(t, "200", command.RawMaterials[1].Quantity.String())
	assert.True(t, command.RawMaterials[1].UnitCost.IsZero())
	require.Len(t, command.IntermediateProducts, 1)
	assert.Equal(t, "300.5", command.IntermediateProducts[0].Quantity.String())

	require.Len(t, command.Recipes, 1)
	r := command.Recipes[0]
	assert.Equal(t, "Sourdough", r.Name)
	assert.Equal(t, "10", r.YieldQuantity.String())
	require.Len(t, r.Ingredients, 2)
	assert.Equal(t, "INTERMEDIATE_PRODUCT", r.Ingredients[1].Type)
	assert.Equal(t, "12.5", r.Ingredients[1].Quantity.String())
}

func TestReadCatalogFile_BadQuantity(t *testing.T) {
	file, err := readCatalogFile(writeFile(t, "catalog.yaml", `
raw_materials:
  - name: Flour
    unit: g
    quantity: lots
`))
	require.NoError(t, err)

	_, err = file.toCommand("north")
	assert.ErrorContains(t, err, `invalid Flour quantity "lots"`)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(&inventory.InsufficientInventoryError{}))
	assert.Equal(t, 3, exitCode(&production.IncompleteStepsError{}))
	assert.Equal(t, 3, exitCode(&production.InvalidTransitionError{}))
	assert.Equal(t, 4, exitCode(&production.RunNotFoundError{RunID: "x"}))
	assert.Equal(t, 5, exitCode(&inventory.ConsistencyError{}))
	assert.Equal(t, 6, exitCode(shared.NewStorageError("op", errors.New("io"))))
	assert.Equal(t, 1, exitCode(errors.New("unknown")))
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "postgresql://bakery:xxxxx@db:5432/bakery",
		maskPassword("postgresql://bakery:secret@db:5432/bakery"))
	assert.Equal(t, "postgresql://db/bakery", maskPassword("postgresql://db/bakery"))
	assert.Equal(t, "", maskPassword(""))
}

func TestRootCommand_ImportAndPlan(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "bakery.db")
	configFile := writeFile(t, "config.yaml", `
database:
  type: sqlite
  path: `+dbPath+`
logging:
  level: error
production:
  tenant_id: north
  default_steps: [Mix, Bake]
`)
	catalog := writeFile(t, "catalog.yaml", catalogYAML)

	run := func(args ...string) error {
		root := NewRootCommand()
		root.SetArgs(append([]string{"--config", configFile}, args...))
		return root.Execute()
	}

	require.NoError(t, run("migrate"))
	require.NoError(t, run("catalog", "import", catalog))

	cfg, err := config.LoadConfig(configFile)
	require.NoError(t, err)
	db, err := database.NewConnection(&cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	sourdough, err := persistence.NewGormRecipeRepository(db).FindByName(context.Background(), "north", "Sourdough")
	require.NoError(t, err)
	require.NotNil(t, sourdough)
	require.Len(t, sourdough.Ingredients(), 2)

	require.NoError(t, run("production", "plan", "--recipe", sourdough.ID(), "--quantity", "20"))

	var runs []persistence.ProductionRunModel
	require.NoError(t, db.Preload("Steps").Find(&runs).Error)
	require.Len(t, runs, 1)
	assert.Equal(t, "north", runs[0].TenantID)
	assert.Len(t, runs[0].Steps, 2)

	err = run("production", "allocate", "missing-run")
	assert.Equal(t, 4, exitCode(err))
}
