package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// GormAllocationRepository implements production.AllocationRepository using GORM
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GORM allocation repository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// FindByRunID lists a run's allocations ordered by material
func (r *GormAllocationRepository) FindByRunID(ctx context.Context, runID string) ([]*production.Allocation, error) {
	var models []ProductionAllocationModel
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("material_type ASC, material_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, shared.NewStorageError("find allocations", err)
	}

	allocations := make([]*production.Allocation, 0, len(models))
	for i := range models {
		a, err := modelToAllocation(&models[i])
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, nil
}

// Upsert inserts the allocation or overwrites the row of the same (run, material)
func (r *GormAllocationRepository) Upsert(ctx context.Context, allocation *production.Allocation) error {
	model := allocationToModel(allocation)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "run_id"}, {Name: "material_type"}, {Name: "material_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"material_name", "unit", "unit_cost", "quantity_allocated", "quantity_consumed",
			"status", "allocated_at", "consumed_at", "released_at",
		}),
	}).Create(&model).Error
	return shared.NewStorageError("upsert allocation", err)
}

// Update writes an existing allocation. CONSUMED rows are never rewritten.
func (r *GormAllocationRepository) Update(ctx context.Context, allocation *production.Allocation) error {
	model := allocationToModel(allocation)
	result := r.db.WithContext(ctx).Model(&ProductionAllocationModel{}).
		Where("id = ? AND status <> ?", model.ID, string(production.AllocationStatusConsumed)).
		Updates(map[string]interface{}{
			"material_name":      model.MaterialName,
			"unit":               model.Unit,
			"unit_cost":          model.UnitCost,
			"quantity_allocated": model.QuantityAllocated,
			"quantity_consumed":  model.QuantityConsumed,
			"status":             model.Status,
			"allocated_at":       model.AllocatedAt,
			"consumed_at":        model.ConsumedAt,
			"released_at":        model.ReleasedAt,
		})
	if result.Error != nil {
		return shared.NewStorageError("update allocation", result.Error)
	}
	if result.RowsAffected == 0 {
		return &production.AllocationStateError{
			AllocationID: model.ID,
			Status:       production.AllocationStatusConsumed,
			Operation:    "update",
		}
	}
	return nil
}

func allocationToModel(a *production.Allocation) ProductionAllocationModel {
	return ProductionAllocationModel{
		ID:                a.ID(),
		RunID:             a.RunID(),
		MaterialType:      string(a.Material().Type()),
		MaterialID:        a.Material().ID(),
		MaterialName:      a.MaterialName(),
		Unit:              a.Unit(),
		UnitCost:          a.UnitCost(),
		QuantityAllocated: a.QuantityAllocated(),
		QuantityConsumed:  a.QuantityConsumed(),
		Status:            string(a.Status()),
		AllocatedAt:       a.AllocatedAt(),
		ConsumedAt:        a.ConsumedAt(),
		ReleasedAt:        a.ReleasedAt(),
	}
}

func modelToAllocation(m *ProductionAllocationModel) (*production.Allocation, error) {
	materialType, err := inventory.ParseMaterialType(m.MaterialType)
	if err != nil {
		return nil, fmt.Errorf("allocation %s: %w", m.ID, err)
	}
	ref, err := inventory.NewMaterialRef(materialType, m.MaterialID)
	if err != nil {
		return nil, fmt.Errorf("allocation %s: %w", m.ID, err)
	}
	return production.ReconstructAllocation(
		m.ID,
		m.RunID,
		ref,
		m.MaterialName,
		m.Unit,
		m.UnitCost,
		m.QuantityAllocated,
		m.QuantityConsumed,
		production.AllocationStatus(m.Status),
		m.AllocatedAt,
		m.ConsumedAt,
		m.ReleasedAt,
	), nil
}
