package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// GormSKURegistry implements inventory.SKURegistry over the sku_mappings table
type GormSKURegistry struct {
	db *gorm.DB
}

// NewGormSKURegistry creates a new GORM SKU registry
func NewGormSKURegistry(db *gorm.DB) *GormSKURegistry {
	return &GormSKURegistry{db: db}
}

// LookupSKU returns the SKU mapped to a product name
func (r *GormSKURegistry) LookupSKU(ctx context.Context, tenantID shared.TenantID, name string) (string, bool, error) {
	mapping, err := r.findOne(ctx, "tenant_id = ? AND name = ?", tenantID.String(), name)
	if err != nil || mapping == nil {
		return "", false, err
	}
	return mapping.SKU, true, nil
}

// OwnerOf returns the product name a SKU is mapped to
func (r *GormSKURegistry) OwnerOf(ctx context.Context, tenantID shared.TenantID, sku string) (string, bool, error) {
	mapping, err := r.findOne(ctx, "tenant_id = ? AND sku = ?", tenantID.String(), sku)
	if err != nil || mapping == nil {
		return "", false, err
	}
	return mapping.Name, true, nil
}

// Register maps name to sku. An existing mapping for name is kept and returned.
func (r *GormSKURegistry) Register(ctx context.Context, tenantID shared.TenantID, name string, sku string) (string, error) {
	model := SKUMappingModel{
		TenantID:  tenantID.String(),
		Name:      name,
		SKU:       sku,
		CreatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
	if err != nil {
		return "", shared.NewStorageError("register sku", err)
	}

	mapping, err := r.findOne(ctx, "tenant_id = ? AND name = ?", tenantID.String(), name)
	if err != nil {
		return "", err
	}
	if mapping == nil {
		// The insert was skipped because another product already owns the SKU
		owner, _, err := r.OwnerOf(ctx, tenantID, sku)
		if err != nil {
			return "", err
		}
		return "", &inventory.ConsistencyError{
			Message: fmt.Sprintf("sku %s for %q is already registered to %q", sku, name, owner),
		}
	}
	return mapping.SKU, nil
}

func (r *GormSKURegistry) findOne(ctx context.Context, query string, args ...interface{}) (*SKUMappingModel, error) {
	var model SKUMappingModel
	result := r.db.WithContext(ctx).Where(query, args...).Take(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, shared.NewStorageError("find sku mapping", result.Error)
	}
	return &model, nil
}
