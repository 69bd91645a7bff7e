package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// NewRepositories binds every repository to db, which may be a transaction
func NewRepositories(db *gorm.DB) common.Repositories {
	return common.Repositories{
		Recipes:          NewGormRecipeRepository(db),
		Items:            NewGormItemRepository(db),
		FinishedProducts: NewGormFinishedProductRepository(db),
		SKUs:             NewGormSKURegistry(db),
		Runs:             NewGormProductionRunRepository(db),
		Allocations:      NewGormAllocationRepository(db),
	}
}

// GormUnitOfWork implements common.UnitOfWork with one database transaction per call
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GORM unit of work
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Do runs fn in a transaction. Errors from fn are returned as they are; begin and
// commit failures come back as *shared.StorageError.
func (u *GormUnitOfWork) Do(
	ctx context.Context,
	fn func(ctx context.Context, repos common.Repositories) error,
) (err error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return shared.NewStorageError("begin transaction", tx.Error)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		tx.Rollback()
	}()

	if err = fn(ctx, NewRepositories(tx)); err != nil {
		return err
	}

	if err = tx.Commit().Error; err != nil {
		return shared.NewStorageError("commit transaction", err)
	}
	committed = true
	return nil
}
