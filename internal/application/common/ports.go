package common

import (
	"context"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/recipe"
)

// Repositories is the set of repositories bound to one transaction
type Repositories struct {
	Recipes          recipe.Repository
	Items            inventory.ItemRepository
	FinishedProducts inventory.FinishedProductRepository
	SKUs             inventory.SKURegistry
	Runs             production.RunRepository
	Allocations      production.AllocationRepository
}

// UnitOfWork runs fn inside one storage transaction. The transaction commits when
// fn returns nil and rolls back on any error or panic. fn must use the provided
// repositories only; repositories captured from outside do not see its writes.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
