package steps

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/Oscarts/backery2-app-sub005/internal/adapters/metrics"
	"github.com/Oscarts/backery2-app-sub005/internal/adapters/persistence"
	"github.com/Oscarts/backery2-app-sub005/internal/application/production/services"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/recipe"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub005/test/helpers"
)

type productionContext struct {
	ctx        context.Context
	clock      *shared.MockClock
	engine     *services.AllocationEngine
	steps      *services.StepService
	completion *services.CompletionService

	items    map[string]*inventory.Item
	recipes  map[string]*recipe.Recipe
	run      *production.Run
	products []*inventory.FinishedProduct
	lastErr  error
}

func (pc *productionContext) reset() error {
	if err := helpers.TruncateAllTables(); err != nil {
		return err
	}

	uow := persistence.NewGormUnitOfWork(helpers.SharedTestDB)
	pc.ctx = context.Background()
	pc.clock = shared.NewMockClock(helpers.FixtureTime)
	pc.engine = services.NewAllocationEngine(uow, pc.clock)
	pc.steps = services.NewStepService(uow, pc.clock)
	pc.completion = services.NewCompletionService(uow, pc.clock, services.CompletionOptions{
		BatchPrefix: "BATCH",
		ShelfLife:   48 * time.Hour,
	})
	pc.items = make(map[string]*inventory.Item)
	pc.recipes = make(map[string]*recipe.Recipe)
	pc.run = nil
	pc.products = nil
	pc.lastErr = nil
	return nil
}

// Given steps

func (pc *productionContext) aRawMaterialWithOnHand(name, onHand, unit, unitCost string) error {
	return pc.storeItem(inventory.MaterialTypeRawMaterial, name, onHand, unit, unitCost)
}

func (pc *productionContext) anIntermediateProductWithOnHand(name, onHand, unit, unitCost string) error {
	return pc.storeItem(inventory.MaterialTypeIntermediateProduct, name, onHand, unit, unitCost)
}

func (pc *productionContext) storeItem(materialType inventory.MaterialType, name, onHand, unit, unitCost string) error {
	qty, err := decimal.NewFromString(onHand)
	if err != nil {
		return err
	}
	cost, err := decimal.NewFromString(unitCost)
	if err != nil {
		return err
	}
	item, err := inventory.NewItem(materialType, helpers.TestTenant, name, unit, qty, cost, pc.clock.Now())
	if err != nil {
		return err
	}
	if err := persistence.NewGormItemRepository(helpers.SharedTestDB).Save(pc.ctx, item); err != nil {
		return err
	}
	pc.items[name] = item
	return nil
}

func (pc *productionContext) materialIsContaminated(name string) error {
	item, err := pc.item(name)
	if err != nil {
		return err
	}
	item.MarkContaminated(true)
	return persistence.NewGormItemRepository(helpers.SharedTestDB).Save(pc.ctx, item)
}

func (pc *productionContext) aRecipeYielding(name, yield, unit string, table *godog.Table) error {
	if len(table.Rows) < 2 {
		return fmt.Errorf("recipe %q needs at least one ingredient row", name)
	}

	ingredients := make([]recipe.Ingredient, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		if len(row.Cells) != 2 {
			return fmt.Errorf("expected | ingredient | quantity | rows")
		}
		item, err := pc.item(row.Cells[0].Value)
		if err != nil {
			return err
		}
		qty, err := decimal.NewFromString(row.Cells[1].Value)
		if err != nil {
			return err
		}
		ingredients = append(ingredients, recipe.NewIngredient(item.Ref(), qty, item.Unit()))
	}

	yieldQty, err := decimal.NewFromString(yield)
	if err != nil {
		return err
	}
	r, err := recipe.NewRecipe(helpers.TestTenant, name, yieldQty, unit, ingredients, pc.clock.Now())
	if err != nil {
		return err
	}
	if err := persistence.NewGormRecipeRepository(helpers.SharedTestDB).Save(pc.ctx, r); err != nil {
		return err
	}
	pc.recipes[name] = r
	return nil
}

func (pc *productionContext) aPlannedRunWithSteps(recipeName, target, unit, stepList string) error {
	r, ok := pc.recipes[recipeName]
	if !ok {
		return fmt.Errorf("unknown recipe %q", recipeName)
	}
	qty, err := decimal.NewFromString(target)
	if err != nil {
		return err
	}

	var defs []production.StepDefinition
	for _, name := range strings.Split(stepList, ",") {
		if name = strings.TrimSpace(name); name != "" {
			defs = append(defs, production.StepDefinition{Name: name})
		}
	}

	run, err := production.NewRun(helpers.TestTenant, recipeName+" run", r.ID(), qty, unit, defs, pc.clock.Now())
	if err != nil {
		return err
	}
	if err := persistence.NewGormProductionRunRepository(helpers.SharedTestDB).Create(pc.ctx, run); err != nil {
		return err
	}
	pc.run = run
	return nil
}

// When steps

func (pc *productionContext) iAllocateIngredientsForTheRun() error {
	if pc.run == nil {
		return fmt.Errorf("no production run planned")
	}
	_, pc.lastErr = pc.engine.AllocateForRun(pc.ctx, pc.run.ID())
	return nil
}

func (pc *productionContext) iAllocateIngredientsWithMultiplier(multiplier string) error {
	if pc.run == nil {
		return fmt.Errorf("no production run planned")
	}
	m, err := decimal.NewFromString(multiplier)
	if err != nil {
		return err
	}
	_, pc.lastErr = pc.engine.AllocateIngredients(pc.ctx, pc.run.ID(), pc.run.RecipeID(), m)
	return nil
}

func (pc *productionContext) iReleaseTheRunsAllocations() error {
	if pc.run == nil {
		return fmt.Errorf("no production run planned")
	}
	_, pc.lastErr = pc.engine.ReleaseAllocations(pc.ctx, pc.run.ID())
	return nil
}

func (pc *productionContext) iCompleteStep(name string) error {
	return pc.onStep(name, func(stepID string) error {
		_, err := pc.steps.CompleteStep(pc.ctx, pc.run.ID(), stepID, "")
		return err
	})
}

func (pc *productionContext) iSkipStep(name string) error {
	return pc.onStep(name, func(stepID string) error {
		_, err := pc.steps.SkipStep(pc.ctx, pc.run.ID(), stepID, "not needed")
		return err
	})
}

func (pc *productionContext) iStartStep(name string) error {
	return pc.onStep(name, func(stepID string) error {
		_, err := pc.steps.StartStep(pc.ctx, pc.run.ID(), stepID)
		return err
	})
}

func (pc *productionContext) onStep(name string, apply func(stepID string) error) error {
	if pc.run == nil {
		return fmt.Errorf("no production run planned")
	}
	for _, s := range pc.run.Steps() {
		if s.Name() == name {
			pc.clock.Advance(15 * time.Minute)
			pc.lastErr = apply(s.ID())
			return nil
		}
	}
	return fmt.Errorf("run has no step %q", name)
}

func (pc *productionContext) iCompleteEveryStep() error {
	if pc.run == nil {
		return fmt.Errorf("no production run planned")
	}
	for _, s := range pc.run.Steps() {
		pc.clock.Advance(15 * time.Minute)
		if _, err := pc.steps.CompleteStep(pc.ctx, pc.run.ID(), s.ID(), ""); err != nil {
			return fmt.Errorf("complete step %q: %w", s.Name(), err)
		}
	}
	return nil
}

func (pc *productionContext) iCompleteTheRun() error {
	if pc.run == nil {
		return fmt.Errorf("no production run planned")
	}
	result, err := pc.completion.CompleteProductionRun(pc.ctx, pc.run.ID())
	pc.lastErr = err
	if err == nil {
		pc.products = append(pc.products, result.FinishedProduct)
	}
	return nil
}

func (pc *productionContext) iMoveTheRunTo(status string) error {
	if pc.run == nil {
		return fmt.Errorf("no production run planned")
	}
	to, err := production.ParseRunStatus(status)
	if err != nil {
		return err
	}
	_, pc.lastErr = pc.completion.TransitionStatus(pc.ctx, pc.run.ID(), to, services.TransitionOptions{})
	return nil
}

// Then steps

func (pc *productionContext) theOperationShouldSucceed() error {
	if pc.lastErr != nil {
		return fmt.Errorf("expected success, got: %w", pc.lastErr)
	}
	return nil
}

func (pc *productionContext) theOperationShouldFailWith(outcome string) error {
	if pc.lastErr == nil {
		return fmt.Errorf("expected %s error, got success", outcome)
	}
	if got := metrics.ClassifyError(pc.lastErr); got != outcome {
		return fmt.Errorf("expected %s error, got %s: %v", outcome, got, pc.lastErr)
	}
	return nil
}

func (pc *productionContext) theErrorShouldMention(text string) error {
	if pc.lastErr == nil {
		return fmt.Errorf("expected an error mentioning %q, got success", text)
	}
	if !strings.Contains(pc.lastErr.Error(), text) {
		return fmt.Errorf("expected error to mention %q, got: %v", text, pc.lastErr)
	}
	return nil
}

func (pc *productionContext) materialShouldHaveOnHandAndReserved(name, onHand, reserved string) error {
	item, err := pc.item(name)
	if err != nil {
		return err
	}
	fresh, err := persistence.NewGormItemRepository(helpers.SharedTestDB).FindByRef(pc.ctx, item.Ref())
	if err != nil {
		return err
	}
	if fresh == nil {
		return fmt.Errorf("material %q disappeared", name)
	}
	if err := decimalEquals("on hand of "+name, onHand, fresh.OnHand()); err != nil {
		return err
	}
	return decimalEquals("reserved of "+name, reserved, fresh.Reserved())
}

func (pc *productionContext) theRunShouldHoldAllocations(count int, status string) error {
	run, err := pc.reloadRun()
	if err != nil {
		return err
	}
	n := 0
	for _, a := range run.Allocations() {
		if string(a.Status()) == status {
			n++
		}
	}
	if n != count {
		return fmt.Errorf("expected %d %s allocations, got %d", count, status, n)
	}
	return nil
}

func (pc *productionContext) theAllocationForShouldBe(name, quantity string) error {
	item, err := pc.item(name)
	if err != nil {
		return err
	}
	run, err := pc.reloadRun()
	if err != nil {
		return err
	}
	for _, a := range run.Allocations() {
		if a.Material().Key() == item.Ref().Key() {
			return decimalEquals("allocation of "+name, quantity, a.QuantityAllocated())
		}
	}
	return fmt.Errorf("run has no allocation for %q", name)
}

func (pc *productionContext) theRunStatusShouldBe(status string) error {
	run, err := pc.reloadRun()
	if err != nil {
		return err
	}
	if string(run.Status()) != status {
		return fmt.Errorf("expected run status %s, got %s", status, run.Status())
	}
	return nil
}

func (pc *productionContext) noFinishedProductShouldExist() error {
	var n int64
	if err := helpers.SharedTestDB.Model(&persistence.FinishedProductModel{}).Count(&n).Error; err != nil {
		return err
	}
	if n != 0 {
		return fmt.Errorf("expected no finished products, found %d", n)
	}
	return nil
}

func (pc *productionContext) theFinishedProductShouldHave(sku, quantity, cost string) error {
	product, err := pc.lastProduct()
	if err != nil {
		return err
	}
	if product.SKU() != sku {
		return fmt.Errorf("expected sku %s, got %s", sku, product.SKU())
	}
	if err := decimalEquals("quantity", quantity, product.Quantity()); err != nil {
		return err
	}
	return decimalEquals("cost to produce", cost, product.CostToProduce())
}

func (pc *productionContext) theBatchNumberShouldMatch(pattern string) error {
	product, err := pc.lastProduct()
	if err != nil {
		return err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	if !re.MatchString(product.BatchNumber()) {
		return fmt.Errorf("batch number %s does not match %s", product.BatchNumber(), pattern)
	}
	return nil
}

func (pc *productionContext) batchesShouldShareSKU(count int) error {
	if len(pc.products) != count {
		return fmt.Errorf("expected %d finished batches, got %d", count, len(pc.products))
	}
	seen := make(map[string]bool, count)
	for _, p := range pc.products {
		if p.SKU() != pc.products[0].SKU() {
			return fmt.Errorf("sku changed between batches: %s vs %s", pc.products[0].SKU(), p.SKU())
		}
		if seen[p.BatchNumber()] {
			return fmt.Errorf("batch number %s reused", p.BatchNumber())
		}
		seen[p.BatchNumber()] = true
	}
	return nil
}

// helpers

func (pc *productionContext) item(name string) (*inventory.Item, error) {
	item, ok := pc.items[name]
	if !ok {
		return nil, fmt.Errorf("unknown material %q", name)
	}
	return item, nil
}

func (pc *productionContext) reloadRun() (*production.Run, error) {
	if pc.run == nil {
		return nil, fmt.Errorf("no production run planned")
	}
	run, err := persistence.NewGormProductionRunRepository(helpers.SharedTestDB).FindByID(pc.ctx, pc.run.ID())
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run %s not found", pc.run.ID())
	}
	return run, nil
}

func (pc *productionContext) lastProduct() (*inventory.FinishedProduct, error) {
	if len(pc.products) == 0 {
		return nil, fmt.Errorf("no finished product was created")
	}
	return pc.products[len(pc.products)-1], nil
}

func decimalEquals(what, expected string, actual decimal.Decimal) error {
	want, err := decimal.NewFromString(expected)
	if err != nil {
		return err
	}
	if !want.Equal(actual) {
		return fmt.Errorf("expected %s to be %s, got %s", what, want, actual)
	}
	return nil
}

func InitializeProductionScenario(ctx *godog.ScenarioContext) {
	pc := &productionContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, pc.reset()
	})

	// Given steps
	ctx.Step(`^the raw material "([^"]*)" with (\S+) (\S+) on hand at (\S+) each$`, pc.aRawMaterialWithOnHand)
	ctx.Step(`^the intermediate product "([^"]*)" with (\S+) (\S+) on hand at (\S+) each$`, pc.anIntermediateProductWithOnHand)
	ctx.Step(`^"([^"]*)" is contaminated$`, pc.materialIsContaminated)
	ctx.Step(`^a recipe "([^"]*)" yielding (\S+) (\S+) made from:$`, pc.aRecipeYielding)
	ctx.Step(`^a planned run of "([^"]*)" for (\S+) (\S+) with steps "([^"]*)"$`, pc.aPlannedRunWithSteps)

	// When steps
	ctx.Step(`^I allocate ingredients for the run(?: again)?$`, pc.iAllocateIngredientsForTheRun)
	ctx.Step(`^I allocate ingredients for the run with multiplier (\S+)$`, pc.iAllocateIngredientsWithMultiplier)
	ctx.Step(`^I release the run's allocations$`, pc.iReleaseTheRunsAllocations)
	ctx.Step(`^I start step "([^"]*)"$`, pc.iStartStep)
	ctx.Step(`^I complete step "([^"]*)"$`, pc.iCompleteStep)
	ctx.Step(`^I skip step "([^"]*)"$`, pc.iSkipStep)
	ctx.Step(`^I complete every step$`, pc.iCompleteEveryStep)
	ctx.Step(`^I complete the run$`, pc.iCompleteTheRun)
	ctx.Step(`^I move the run to "([^"]*)"$`, pc.iMoveTheRunTo)

	// Then steps
	ctx.Step(`^the operation should succeed$`, pc.theOperationShouldSucceed)
	ctx.Step(`^the operation should fail with "([^"]*)"$`, pc.theOperationShouldFailWith)
	ctx.Step(`^the error should mention "([^"]*)"$`, pc.theErrorShouldMention)
	ctx.Step(`^"([^"]*)" should have (\S+) on hand and (\S+) reserved$`, pc.materialShouldHaveOnHandAndReserved)
	ctx.Step(`^the run should hold (\d+) ([A-Z]+) allocations?$`, pc.theRunShouldHoldAllocations)
	ctx.Step(`^the allocation for "([^"]*)" should be (\S+)$`, pc.theAllocationForShouldBe)
	ctx.Step(`^the run status should be "([^"]*)"$`, pc.theRunStatusShouldBe)
	ctx.Step(`^no finished product should exist$`, pc.noFinishedProductShouldExist)
	ctx.Step(`^the finished product should have sku "([^"]*)", quantity (\S+) and cost (\S+)$`, pc.theFinishedProductShouldHave)
	ctx.Step(`^the batch number should match "([^"]*)"$`, pc.theBatchNumberShouldMatch)
	ctx.Step(`^the (\d+) batches should share one sku with distinct batch numbers$`, pc.batchesShouldShareSKU)
}
