package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/recipe"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// ItemSpec describes one raw material or intermediate product to stock
type ItemSpec struct {
	Name         string `validate:"required"`
	Unit         string `validate:"required"`
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	SKU          string
	Contaminated bool
}

// IngredientSpec references a material of the same import (or already stocked) by name
type IngredientSpec struct {
	Material string `validate:"required"`
	Type     string // RAW_MATERIAL or INTERMEDIATE_PRODUCT; empty searches raw materials first
	Quantity decimal.Decimal
	Unit     string
}

// RecipeSpec describes a recipe and its ingredient lines
type RecipeSpec struct {
	Name          string `validate:"required"`
	Description   string
	YieldQuantity decimal.Decimal
	YieldUnit     string           `validate:"required"`
	Ingredients   []IngredientSpec `validate:"dive"`
}

// ImportCatalogCommand stocks inventory and defines recipes for a tenant. Items are
// matched by (type, name) and recipes by name, so importing the same catalog twice
// updates instead of duplicating.
type ImportCatalogCommand struct {
	TenantID             string       `validate:"required"`
	RawMaterials         []ItemSpec   `validate:"dive"`
	IntermediateProducts []ItemSpec   `validate:"dive"`
	Recipes              []RecipeSpec `validate:"dive"`
}

// ImportCatalogResponse lists the imported materials by key and recipes by name
type ImportCatalogResponse struct {
	Items   map[string]inventory.MaterialRef
	Recipes map[string]string
}

// ImportCatalogHandler handles the ImportCatalog command
type ImportCatalogHandler struct {
	uow   common.UnitOfWork
	clock shared.Clock
}

// NewImportCatalogHandler creates a new ImportCatalogHandler
func NewImportCatalogHandler(uow common.UnitOfWork, clock shared.Clock) *ImportCatalogHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &ImportCatalogHandler{uow: uow, clock: clock}
}

// Handle executes the ImportCatalog command
func (h *ImportCatalogHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ImportCatalogCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ImportCatalogCommand")
	}

	tenantID, err := shared.NewTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}

	response := &ImportCatalogResponse{
		Items:   make(map[string]inventory.MaterialRef),
		Recipes: make(map[string]string),
	}

	err = h.uow.Do(ctx, func(ctx context.Context, repos common.Repositories) error {
		for _, spec := range cmd.RawMaterials {
			ref, err := h.upsertItem(ctx, repos, tenantID, inventory.MaterialTypeRawMaterial, spec)
			if err != nil {
				return err
			}
			response.Items[ref.Key()] = ref
		}
		for _, spec := range cmd.IntermediateProducts {
			ref, err := h.upsertItem(ctx, repos, tenantID, inventory.MaterialTypeIntermediateProduct, spec)
			if err != nil {
				return err
			}
			response.Items[ref.Key()] = ref
		}
		for _, spec := range cmd.Recipes {
			id, err := h.upsertRecipe(ctx, repos, tenantID, spec)
			if err != nil {
				return err
			}
			response.Recipes[spec.Name] = id
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	common.LoggerFromContext(ctx).Info("catalog imported",
		"tenant", tenantID.String(),
		"items", len(response.Items),
		"recipes", len(response.Recipes),
	)
	return response, nil
}

func (h *ImportCatalogHandler) upsertItem(
	ctx context.Context,
	repos common.Repositories,
	tenantID shared.TenantID,
	materialType inventory.MaterialType,
	spec ItemSpec,
) (inventory.MaterialRef, error) {
	now := h.clock.Now()

	existing, err := repos.Items.FindByName(ctx, tenantID, materialType, strings.TrimSpace(spec.Name))
	if err != nil {
		return inventory.MaterialRef{}, err
	}

	var item *inventory.Item
	if existing != nil {
		// Save never writes the reservation and re-checks on-hand against the stored one
		if spec.Quantity.LessThan(existing.Reserved()) {
			return inventory.MaterialRef{}, shared.NewValidationError("quantity",
				fmt.Sprintf("%s: on-hand %s would drop below reserved %s", spec.Name, spec.Quantity, existing.Reserved()))
		}
		item = inventory.ReconstructItem(
			existing.Ref(),
			tenantID,
			existing.Name(),
			existing.SKU(),
			inventory.RoundQuantity(spec.Quantity),
			existing.Reserved(),
			spec.Unit,
			spec.UnitCost,
			existing.IsContaminated(),
			existing.CreatedAt(),
			now,
		)
	} else {
		item, err = inventory.NewItem(materialType, tenantID, spec.Name, spec.Unit, spec.Quantity, spec.UnitCost, now)
		if err != nil {
			return inventory.MaterialRef{}, err
		}
	}

	if spec.SKU != "" {
		item.SetSKU(spec.SKU)
	}
	item.MarkContaminated(spec.Contaminated)

	if err := repos.Items.Save(ctx, item); err != nil {
		return inventory.MaterialRef{}, err
	}
	return item.Ref(), nil
}

func (h *ImportCatalogHandler) upsertRecipe(
	ctx context.Context,
	repos common.Repositories,
	tenantID shared.TenantID,
	spec RecipeSpec,
) (string, error) {
	ingredients := make([]recipe.Ingredient, 0, len(spec.Ingredients))
	for _, ing := range spec.Ingredients {
		ref, err := h.resolveMaterial(ctx, repos, tenantID, ing)
		if err != nil {
			return "", err
		}
		ingredients = append(ingredients, recipe.NewIngredient(ref, ing.Quantity, ing.Unit))
	}

	r, err := recipe.NewRecipe(tenantID, spec.Name, spec.YieldQuantity, spec.YieldUnit, ingredients, h.clock.Now())
	if err != nil {
		return "", err
	}
	r.SetDescription(spec.Description)

	existing, err := repos.Recipes.FindByName(ctx, tenantID, r.Name())
	if err != nil {
		return "", err
	}
	if existing != nil {
		r = recipe.ReconstructRecipe(
			existing.ID(),
			tenantID,
			r.Name(),
			r.Description(),
			r.YieldQuantity(),
			r.YieldUnit(),
			r.Ingredients(),
			existing.CreatedAt(),
		)
	}

	if err := repos.Recipes.Save(ctx, r); err != nil {
		return "", err
	}
	return r.ID(), nil
}

func (h *ImportCatalogHandler) resolveMaterial(
	ctx context.Context,
	repos common.Repositories,
	tenantID shared.TenantID,
	ing IngredientSpec,
) (inventory.MaterialRef, error) {
	types := []inventory.MaterialType{inventory.MaterialTypeRawMaterial, inventory.MaterialTypeIntermediateProduct}
	if ing.Type != "" {
		t, err := inventory.ParseMaterialType(ing.Type)
		if err != nil {
			return inventory.MaterialRef{}, err
		}
		types = []inventory.MaterialType{t}
	}

	for _, t := range types {
		item, err := repos.Items.FindByName(ctx, tenantID, t, strings.TrimSpace(ing.Material))
		if err != nil {
			return inventory.MaterialRef{}, err
		}
		if item != nil {
			return item.Ref(), nil
		}
	}
	return inventory.MaterialRef{}, shared.NewNotFoundError("inventory item", ing.Material)
}
