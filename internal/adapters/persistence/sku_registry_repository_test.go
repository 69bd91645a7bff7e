package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oscarts/backery2-app-sub005/internal/adapters/persistence"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/test/helpers"
)

func TestSKURegistry_RegisterAndLookup(t *testing.T) {
	db := helpers.NewTestDB(t)
	registry := persistence.NewGormSKURegistry(db)
	ctx := context.Background()

	sku, err := registry.Register(ctx, helpers.TestTenant, "Bread", "BREAD")
	require.NoError(t, err)
	assert.Equal(t, "BREAD", sku)

	// Registering the same name again keeps the first SKU
	sku, err = registry.Register(ctx, helpers.TestTenant, "Bread", "BREAD-2")
	require.NoError(t, err)
	assert.Equal(t, "BREAD", sku)

	found, ok, err := registry.LookupSKU(ctx, helpers.TestTenant, "Bread")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "BREAD", found)

	owner, ok, err := registry.OwnerOf(ctx, helpers.TestTenant, "BREAD")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Bread", owner)

	_, ok, err = registry.LookupSKU(ctx, "other-tenant", "Bread")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSKURegistry_SKUOwnedByAnotherName(t *testing.T) {
	db := helpers.NewTestDB(t)
	registry := persistence.NewGormSKURegistry(db)
	ctx := context.Background()

	_, err := registry.Register(ctx, helpers.TestTenant, "Bread", "BREAD")
	require.NoError(t, err)

	_, err = registry.Register(ctx, helpers.TestTenant, "bread!", "BREAD")

	var consistency *inventory.ConsistencyError
	require.ErrorAs(t, err, &consistency)
	assert.Contains(t, err.Error(), `already registered to "Bread"`)

	_, found, err := registry.LookupSKU(ctx, helpers.TestTenant, "bread!")
	require.NoError(t, err)
	assert.False(t, found)
}
