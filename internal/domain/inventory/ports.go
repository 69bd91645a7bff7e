package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// ItemRepository reads raw materials and intermediate products and applies the
// conditional stock updates. Every mutating method is a single compare-and-swap
// statement: it reports false instead of writing when the guard does not hold.
type ItemRepository interface {
	// FindByRef returns nil, nil when the item does not exist
	FindByRef(ctx context.Context, ref MaterialRef) (*Item, error)

	// FindByName returns the tenant's item of the given type and name, or nil, nil
	FindByName(ctx context.Context, tenantID shared.TenantID, materialType MaterialType, name string) (*Item, error)

	// Save inserts or updates the item's descriptive fields and quantities
	Save(ctx context.Context, item *Item) error

	// Reserve adds qty to the reserved quantity when available >= qty and the item is not contaminated
	Reserve(ctx context.Context, ref MaterialRef, qty decimal.Decimal) (bool, error)

	// ReleaseReservation subtracts qty from the reserved quantity when reserved >= qty
	ReleaseReservation(ctx context.Context, ref MaterialRef, qty decimal.Decimal) (bool, error)

	// Consume subtracts qty from both on-hand and reserved when both cover qty
	Consume(ctx context.Context, ref MaterialRef, qty decimal.Decimal) (bool, error)
}

// FinishedProductRepository persists finished batches
type FinishedProductRepository interface {
	Create(ctx context.Context, product *FinishedProduct) error

	// FindByID returns nil, nil when the batch does not exist
	FindByID(ctx context.Context, id string) (*FinishedProduct, error)

	// FindLatestByName returns the most recent batch for a product name, or nil, nil
	FindLatestByName(ctx context.Context, tenantID shared.TenantID, name string) (*FinishedProduct, error)

	// FindBySKU lists every batch sharing a SKU, oldest first
	FindBySKU(ctx context.Context, tenantID shared.TenantID, sku string) ([]*FinishedProduct, error)
}

// SKURegistry maps product names to their stable SKU per tenant
type SKURegistry interface {
	// LookupSKU returns the SKU registered for name, if any
	LookupSKU(ctx context.Context, tenantID shared.TenantID, name string) (string, bool, error)

	// OwnerOf returns the product name a SKU is registered to, if any
	OwnerOf(ctx context.Context, tenantID shared.TenantID, sku string) (string, bool, error)

	// Register records name -> sku. When name is already registered the existing
	// SKU wins and is returned.
	Register(ctx context.Context, tenantID shared.TenantID, name string, sku string) (string, error)
}
