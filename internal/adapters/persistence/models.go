package persistence

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecipeModel represents the recipes table
type RecipeModel struct {
	ID            string                  `gorm:"column:id;primaryKey"`
	TenantID      string                  `gorm:"column:tenant_id;not null;uniqueIndex:idx_recipes_tenant_name"`
	Name          string                  `gorm:"column:name;not null;uniqueIndex:idx_recipes_tenant_name"`
	Description   string                  `gorm:"column:description;type:text"`
	YieldQuantity decimal.Decimal         `gorm:"column:yield_quantity;type:decimal(20,4);not null"`
	YieldUnit     string                  `gorm:"column:yield_unit;not null"`
	CreatedAt     time.Time               `gorm:"column:created_at;not null"`
	Ingredients   []RecipeIngredientModel `gorm:"foreignKey:RecipeID;references:ID;constraint:OnDelete:CASCADE"`
}

func (RecipeModel) TableName() string {
	return "recipes"
}

// RecipeIngredientModel represents the recipe_ingredients table.
// Exactly one of RawMaterialID and IntermediateProductID is expected to be set.
type RecipeIngredientModel struct {
	ID                    string          `gorm:"column:id;primaryKey"`
	RecipeID              string          `gorm:"column:recipe_id;not null;index"`
	Position              int             `gorm:"column:position;not null;default:0"`
	RawMaterialID         *string         `gorm:"column:raw_material_id"`
	IntermediateProductID *string         `gorm:"column:intermediate_product_id"`
	Quantity              decimal.Decimal `gorm:"column:quantity;type:decimal(20,4);not null"`
	Unit                  string          `gorm:"column:unit;not null"`
	Notes                 string          `gorm:"column:notes"`
}

func (RecipeIngredientModel) TableName() string {
	return "recipe_ingredients"
}

// InventoryColumns are shared by raw materials and intermediate products
type InventoryColumns struct {
	ID               string          `gorm:"column:id;primaryKey"`
	TenantID         string          `gorm:"column:tenant_id;not null;index"`
	Name             string          `gorm:"column:name;not null"`
	SKU              *string         `gorm:"column:sku"`
	Quantity         decimal.Decimal `gorm:"column:quantity;type:decimal(20,4);not null;default:0"`
	ReservedQuantity decimal.Decimal `gorm:"column:reserved_quantity;type:decimal(20,4);not null;default:0"`
	Unit             string          `gorm:"column:unit;not null"`
	UnitCost         decimal.Decimal `gorm:"column:unit_cost;type:decimal(20,4);not null;default:0"`
	IsContaminated   bool            `gorm:"column:is_contaminated;not null;default:false"`
	CreatedAt        time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;not null"`
}

// RawMaterialModel represents the raw_materials table
type RawMaterialModel struct {
	InventoryColumns `gorm:"embedded"`
}

func (RawMaterialModel) TableName() string {
	return "raw_materials"
}

// IntermediateProductModel represents the intermediate_products table
type IntermediateProductModel struct {
	InventoryColumns `gorm:"embedded"`
}

func (IntermediateProductModel) TableName() string {
	return "intermediate_products"
}

// ProductionRunModel represents the production_runs table
type ProductionRunModel struct {
	ID                string                `gorm:"column:id;primaryKey"`
	TenantID          string                `gorm:"column:tenant_id;not null;index"`
	Name              string                `gorm:"column:name;not null"`
	RecipeID          string                `gorm:"column:recipe_id;not null;index"`
	TargetQuantity    decimal.Decimal       `gorm:"column:target_quantity;type:decimal(20,4);not null"`
	TargetUnit        string                `gorm:"column:target_unit"`
	Status            string                `gorm:"column:status;not null;index"`
	Notes             string                `gorm:"column:notes;type:text"`
	FinishedProductID *string               `gorm:"column:finished_product_id"`
	CreatedAt         time.Time             `gorm:"column:created_at;not null"`
	StartedAt         *time.Time            `gorm:"column:started_at"`
	CompletedAt       *time.Time            `gorm:"column:completed_at"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;not null"`
	Steps             []ProductionStepModel `gorm:"foreignKey:RunID;references:ID;constraint:OnDelete:CASCADE"`
}

func (ProductionRunModel) TableName() string {
	return "production_runs"
}

// ProductionStepModel represents the production_steps table
type ProductionStepModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	RunID       string     `gorm:"column:run_id;not null;uniqueIndex:idx_steps_run_order"`
	StepOrder   int        `gorm:"column:step_order;not null;uniqueIndex:idx_steps_run_order"`
	Name        string     `gorm:"column:name;not null"`
	Description string     `gorm:"column:description;type:text"`
	Status      string     `gorm:"column:status;not null"`
	StartedAt   *time.Time `gorm:"column:started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	Notes       string     `gorm:"column:notes;type:text"`
}

func (ProductionStepModel) TableName() string {
	return "production_steps"
}

// ProductionAllocationModel represents the production_allocations table
type ProductionAllocationModel struct {
	ID                string          `gorm:"column:id;primaryKey"`
	RunID             string          `gorm:"column:run_id;not null;uniqueIndex:idx_allocations_run_material"`
	MaterialType      string          `gorm:"column:material_type;not null;uniqueIndex:idx_allocations_run_material"`
	MaterialID        string          `gorm:"column:material_id;not null;uniqueIndex:idx_allocations_run_material"`
	MaterialName      string          `gorm:"column:material_name"`
	Unit              string          `gorm:"column:unit"`
	UnitCost          decimal.Decimal `gorm:"column:unit_cost;type:decimal(20,4);not null;default:0"`
	QuantityAllocated decimal.Decimal `gorm:"column:quantity_allocated;type:decimal(20,4);not null"`
	QuantityConsumed  decimal.Decimal `gorm:"column:quantity_consumed;type:decimal(20,4);not null;default:0"`
	Status            string          `gorm:"column:status;not null"`
	AllocatedAt       time.Time       `gorm:"column:allocated_at;not null"`
	ConsumedAt        *time.Time      `gorm:"column:consumed_at"`
	ReleasedAt        *time.Time      `gorm:"column:released_at"`
}

func (ProductionAllocationModel) TableName() string {
	return "production_allocations"
}

// FinishedProductModel represents the finished_products table. One row per batch.
type FinishedProductModel struct {
	ID               string          `gorm:"column:id;primaryKey"`
	TenantID         string          `gorm:"column:tenant_id;not null;index:idx_finished_tenant_name;index:idx_finished_tenant_sku"`
	Name             string          `gorm:"column:name;not null;index:idx_finished_tenant_name"`
	SKU              string          `gorm:"column:sku;not null;index:idx_finished_tenant_sku"`
	BatchNumber      string          `gorm:"column:batch_number;not null;uniqueIndex"`
	Quantity         decimal.Decimal `gorm:"column:quantity;type:decimal(20,4);not null"`
	ReservedQuantity decimal.Decimal `gorm:"column:reserved_quantity;type:decimal(20,4);not null;default:0"`
	Unit             string          `gorm:"column:unit"`
	CostToProduce    decimal.Decimal `gorm:"column:cost_to_produce;type:decimal(20,4);not null;default:0"`
	QualityStatus    string          `gorm:"column:quality_status;not null"`
	ProductionRunID  *string         `gorm:"column:production_run_id;index"`
	ProductionDate   time.Time       `gorm:"column:production_date;not null"`
	ExpirationDate   *time.Time      `gorm:"column:expiration_date"`
	CreatedAt        time.Time       `gorm:"column:created_at;not null"`
}

func (FinishedProductModel) TableName() string {
	return "finished_products"
}

// SKUMappingModel represents the sku_mappings table (product name -> SKU per tenant)
type SKUMappingModel struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID  string    `gorm:"column:tenant_id;not null;uniqueIndex:idx_sku_tenant_name;uniqueIndex:idx_sku_tenant_sku"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:idx_sku_tenant_name"`
	SKU       string    `gorm:"column:sku;not null;uniqueIndex:idx_sku_tenant_sku"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (SKUMappingModel) TableName() string {
	return "sku_mappings"
}

// AllModels lists every model in migration order
func AllModels() []interface{} {
	return []interface{}{
		&RawMaterialModel{},
		&IntermediateProductModel{},
		&RecipeModel{},
		&RecipeIngredientModel{},
		&ProductionRunModel{},
		&ProductionStepModel{},
		&ProductionAllocationModel{},
		&FinishedProductModel{},
		&SKUMappingModel{},
	}
}
