package recipe

import (
	"context"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// Repository looks up recipes with their ingredient lines
type Repository interface {
	// FindByID returns nil, nil when the recipe does not exist
	FindByID(ctx context.Context, id string) (*Recipe, error)

	// FindByName returns nil, nil when the tenant has no recipe with that name
	FindByName(ctx context.Context, tenantID shared.TenantID, name string) (*Recipe, error)

	// Save inserts or replaces the recipe and its ingredient lines
	Save(ctx context.Context, r *Recipe) error
}
