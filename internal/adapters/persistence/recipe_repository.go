package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/recipe"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// GormRecipeRepository implements recipe.Repository using GORM
type GormRecipeRepository struct {
	db *gorm.DB
}

// NewGormRecipeRepository creates a new GORM recipe repository
func NewGormRecipeRepository(db *gorm.DB) *GormRecipeRepository {
	return &GormRecipeRepository{db: db}
}

// FindByID retrieves a recipe with its ingredient lines
func (r *GormRecipeRepository) FindByID(ctx context.Context, id string) (*recipe.Recipe, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByName retrieves the tenant's recipe with the given name
func (r *GormRecipeRepository) FindByName(ctx context.Context, tenantID shared.TenantID, name string) (*recipe.Recipe, error) {
	return r.findOne(ctx, "tenant_id = ? AND name = ?", tenantID.String(), name)
}

func (r *GormRecipeRepository) findOne(ctx context.Context, query string, args ...interface{}) (*recipe.Recipe, error) {
	var model RecipeModel
	result := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where(query, args...).
		Take(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, shared.NewStorageError("find recipe", result.Error)
	}
	return modelToRecipe(&model)
}

// Save inserts or replaces the recipe row and all of its ingredient lines
func (r *GormRecipeRepository) Save(ctx context.Context, rec *recipe.Recipe) error {
	model := recipeToModel(rec)
	ingredients := model.Ingredients
	model.Ingredients = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "yield_quantity", "yield_unit"}),
		}).Create(&model).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", model.ID).Delete(&RecipeIngredientModel{}).Error; err != nil {
			return err
		}
		if len(ingredients) == 0 {
			return nil
		}
		return tx.Create(&ingredients).Error
	})
	return shared.NewStorageError("save recipe", err)
}

func modelToRecipe(model *RecipeModel) (*recipe.Recipe, error) {
	ingredients := make([]recipe.Ingredient, 0, len(model.Ingredients))
	for _, ing := range model.Ingredients {
		ref, err := recipe.MaterialFromColumns(model.ID, ing.ID, ing.RawMaterialID, ing.IntermediateProductID)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, recipe.ReconstructIngredient(ing.ID, ref, ing.Quantity, ing.Unit, ing.Notes))
	}

	return recipe.ReconstructRecipe(
		model.ID,
		shared.TenantID(model.TenantID),
		model.Name,
		model.Description,
		model.YieldQuantity,
		model.YieldUnit,
		ingredients,
		model.CreatedAt,
	), nil
}

func recipeToModel(rec *recipe.Recipe) RecipeModel {
	model := RecipeModel{
		ID:            rec.ID(),
		TenantID:      rec.TenantID().String(),
		Name:          rec.Name(),
		Description:   rec.Description(),
		YieldQuantity: rec.YieldQuantity(),
		YieldUnit:     rec.YieldUnit(),
		CreatedAt:     rec.CreatedAt(),
	}
	for i, ing := range rec.Ingredients() {
		rawID, intermediateID := recipe.MaterialColumns(ing.Material())
		model.Ingredients = append(model.Ingredients, RecipeIngredientModel{
			ID:                    ing.ID(),
			RecipeID:              rec.ID(),
			Position:              i,
			RawMaterialID:         rawID,
			IntermediateProductID: intermediateID,
			Quantity:              ing.Quantity(),
			Unit:                  ing.Unit(),
			Notes:                 ing.Notes(),
		})
	}
	return model
}
