package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// GormProductionRunRepository implements production.RunRepository using GORM
type GormProductionRunRepository struct {
	db          *gorm.DB
	allocations *GormAllocationRepository
}

// NewGormProductionRunRepository creates a new GORM production run repository
func NewGormProductionRunRepository(db *gorm.DB) *GormProductionRunRepository {
	return &GormProductionRunRepository{
		db:          db,
		allocations: NewGormAllocationRepository(db),
	}
}

// Create persists a new run and its steps
func (r *GormProductionRunRepository) Create(ctx context.Context, run *production.Run) error {
	model := runToModel(run)
	err := r.db.WithContext(ctx).Create(&model).Error
	return shared.NewStorageError("create production run", err)
}

// Update writes the run's mutable columns and every step
func (r *GormProductionRunRepository) Update(ctx context.Context, run *production.Run) error {
	model := runToModel(run)
	steps := model.Steps
	model.Steps = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&ProductionRunModel{}).
			Where("id = ?", model.ID).
			Updates(map[string]interface{}{
				"status":              model.Status,
				"notes":               model.Notes,
				"finished_product_id": model.FinishedProductID,
				"started_at":          model.StartedAt,
				"completed_at":        model.CompletedAt,
				"updated_at":          model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if len(steps) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "started_at", "completed_at", "notes"}),
		}).Create(&steps).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &production.RunNotFoundError{RunID: run.ID()}
	}
	return shared.NewStorageError("update production run", err)
}

// FindByID loads a run with its steps and allocations
func (r *GormProductionRunRepository) FindByID(ctx context.Context, id string) (*production.Run, error) {
	return r.find(ctx, id, false)
}

// FindByIDForUpdate loads a run and holds a row lock on it until the transaction
// ends. SQLite has no row locks; there the single connection serializes writers.
func (r *GormProductionRunRepository) FindByIDForUpdate(ctx context.Context, id string) (*production.Run, error) {
	return r.find(ctx, id, true)
}

func (r *GormProductionRunRepository) find(ctx context.Context, id string, lock bool) (*production.Run, error) {
	query := r.db.WithContext(ctx)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var model ProductionRunModel
	if err := query.Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, shared.NewStorageError("find production run", err)
	}

	if err := r.db.WithContext(ctx).
		Where("run_id = ?", id).
		Order("step_order ASC").
		Find(&model.Steps).Error; err != nil {
		return nil, shared.NewStorageError("find production steps", err)
	}

	allocations, err := r.allocations.FindByRunID(ctx, id)
	if err != nil {
		return nil, err
	}

	return modelToRun(&model, allocations), nil
}

func runToModel(run *production.Run) ProductionRunModel {
	var finishedProductID *string
	if run.FinishedProductID() != "" {
		id := run.FinishedProductID()
		finishedProductID = &id
	}

	model := ProductionRunModel{
		ID:                run.ID(),
		TenantID:          run.TenantID().String(),
		Name:              run.Name(),
		RecipeID:          run.RecipeID(),
		TargetQuantity:    run.TargetQuantity(),
		TargetUnit:        run.TargetUnit(),
		Status:            string(run.Status()),
		Notes:             run.Notes(),
		FinishedProductID: finishedProductID,
		CreatedAt:         run.CreatedAt(),
		StartedAt:         run.StartedAt(),
		CompletedAt:       run.CompletedAt(),
		UpdatedAt:         run.UpdatedAt(),
	}
	for _, step := range run.Steps() {
		model.Steps = append(model.Steps, ProductionStepModel{
			ID:          step.ID(),
			RunID:       run.ID(),
			StepOrder:   step.Order(),
			Name:        step.Name(),
			Description: step.Description(),
			Status:      string(step.Status()),
			StartedAt:   step.StartedAt(),
			CompletedAt: step.CompletedAt(),
			Notes:       step.Notes(),
		})
	}
	return model
}

func modelToRun(model *ProductionRunModel, allocations []*production.Allocation) *production.Run {
	steps := make([]*production.Step, 0, len(model.Steps))
	for _, s := range model.Steps {
		steps = append(steps, production.ReconstructStep(
			s.ID,
			s.RunID,
			s.Name,
			s.Description,
			s.StepOrder,
			production.StepStatus(s.Status),
			s.StartedAt,
			s.CompletedAt,
			s.Notes,
		))
	}

	finishedProductID := ""
	if model.FinishedProductID != nil {
		finishedProductID = *model.FinishedProductID
	}

	return production.ReconstructRun(
		model.ID,
		shared.TenantID(model.TenantID),
		model.Name,
		model.RecipeID,
		model.TargetQuantity,
		model.TargetUnit,
		production.RunStatus(model.Status),
		steps,
		allocations,
		model.Notes,
		finishedProductID,
		model.CreatedAt,
		model.StartedAt,
		model.CompletedAt,
		model.UpdatedAt,
	)
}
