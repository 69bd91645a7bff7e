package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// GormFinishedProductRepository implements inventory.FinishedProductRepository using GORM
type GormFinishedProductRepository struct {
	db *gorm.DB
}

// NewGormFinishedProductRepository creates a new GORM finished product repository
func NewGormFinishedProductRepository(db *gorm.DB) *GormFinishedProductRepository {
	return &GormFinishedProductRepository{db: db}
}

// Create inserts a new batch. Batch numbers are unique.
func (r *GormFinishedProductRepository) Create(ctx context.Context, product *inventory.FinishedProduct) error {
	model := finishedProductToModel(product)
	err := r.db.WithContext(ctx).Create(&model).Error
	return shared.NewStorageError("create finished product", err)
}

// FindByID retrieves a batch by id
func (r *GormFinishedProductRepository) FindByID(ctx context.Context, id string) (*inventory.FinishedProduct, error) {
	var model FinishedProductModel
	result := r.db.WithContext(ctx).Where("id = ?", id).Take(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, shared.NewStorageError("find finished product", result.Error)
	}
	return modelToFinishedProduct(&model), nil
}

// FindLatestByName retrieves the newest batch of a product
func (r *GormFinishedProductRepository) FindLatestByName(
	ctx context.Context,
	tenantID shared.TenantID,
	name string,
) (*inventory.FinishedProduct, error) {
	var model FinishedProductModel
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID.String(), name).
		Order("production_date DESC, created_at DESC").
		Take(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, shared.NewStorageError("find latest finished product", result.Error)
	}
	return modelToFinishedProduct(&model), nil
}

// FindBySKU lists every batch with the given SKU, oldest first
func (r *GormFinishedProductRepository) FindBySKU(
	ctx context.Context,
	tenantID shared.TenantID,
	sku string,
) ([]*inventory.FinishedProduct, error) {
	var models []FinishedProductModel
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sku = ?", tenantID.String(), sku).
		Order("production_date ASC, created_at ASC").
		Find(&models)
	if result.Error != nil {
		return nil, shared.NewStorageError("find finished products by sku", result.Error)
	}

	products := make([]*inventory.FinishedProduct, len(models))
	for i := range models {
		products[i] = modelToFinishedProduct(&models[i])
	}
	return products, nil
}

func finishedProductToModel(p *inventory.FinishedProduct) FinishedProductModel {
	var runID *string
	if p.ProductionRunID() != "" {
		id := p.ProductionRunID()
		runID = &id
	}
	return FinishedProductModel{
		ID:               p.ID(),
		TenantID:         p.TenantID().String(),
		Name:             p.Name(),
		SKU:              p.SKU(),
		BatchNumber:      p.BatchNumber(),
		Quantity:         p.Quantity(),
		ReservedQuantity: p.Reserved(),
		Unit:             p.Unit(),
		CostToProduce:    p.CostToProduce(),
		QualityStatus:    string(p.QualityStatus()),
		ProductionRunID:  runID,
		ProductionDate:   p.ProductionDate(),
		ExpirationDate:   p.ExpirationDate(),
		CreatedAt:        p.CreatedAt(),
	}
}

func modelToFinishedProduct(m *FinishedProductModel) *inventory.FinishedProduct {
	runID := ""
	if m.ProductionRunID != nil {
		runID = *m.ProductionRunID
	}
	return inventory.ReconstructFinishedProduct(
		m.ID,
		shared.TenantID(m.TenantID),
		m.Name,
		m.SKU,
		m.BatchNumber,
		m.Quantity,
		m.ReservedQuantity,
		m.Unit,
		m.CostToProduce,
		inventory.QualityStatus(m.QualityStatus),
		runID,
		m.ProductionDate,
		m.ExpirationDate,
		m.CreatedAt,
	)
}
