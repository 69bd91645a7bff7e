package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// GormItemRepository implements inventory.ItemRepository over the raw_materials and
// intermediate_products tables. Stock changes are single conditional UPDATEs; a
// false result means the guard did not hold and nothing was written.
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GORM inventory item repository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByRef retrieves an item by its material reference
func (r *GormItemRepository) FindByRef(ctx context.Context, ref inventory.MaterialRef) (*inventory.Item, error) {
	table, err := tableFor(ref.Type())
	if err != nil {
		return nil, err
	}

	var row InventoryColumns
	result := r.db.WithContext(ctx).Table(table).Where("id = ?", ref.ID()).Take(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, shared.NewStorageError("find inventory item", result.Error)
	}
	return rowToItem(ref.Type(), &row)
}

// FindByName retrieves the tenant's item of one type by name
func (r *GormItemRepository) FindByName(
	ctx context.Context,
	tenantID shared.TenantID,
	materialType inventory.MaterialType,
	name string,
) (*inventory.Item, error) {
	table, err := tableFor(materialType)
	if err != nil {
		return nil, err
	}

	var row InventoryColumns
	result := r.db.WithContext(ctx).Table(table).
		Where("tenant_id = ? AND name = ?", tenantID.String(), name).
		Order("created_at ASC").
		Take(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, shared.NewStorageError("find inventory item by name", result.Error)
	}
	return rowToItem(materialType, &row)
}

// Save inserts an item or updates the catalog fields of an existing one.
//
// reserved_quantity is owned by Reserve, ReleaseReservation and Consume and is
// never written from the entity. An update that would put the on-hand quantity
// below the reservation currently stored is rejected without writing.
func (r *GormItemRepository) Save(ctx context.Context, item *inventory.Item) error {
	if err := item.CheckInvariant(); err != nil {
		return err
	}

	cols := itemToRow(item)
	var model interface{}
	switch item.Type() {
	case inventory.MaterialTypeRawMaterial:
		model = &RawMaterialModel{InventoryColumns: cols}
	case inventory.MaterialTypeIntermediateProduct:
		model = &IntermediateProductModel{InventoryColumns: cols}
	default:
		return fmt.Errorf("unknown material type %q", item.Type())
	}
	table, err := tableFor(item.Type())
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "sku", "quantity", "unit", "unit_cost", "is_contaminated", "updated_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: fmt.Sprintf("excluded.quantity >= %s.reserved_quantity", table)},
		}},
	}).Create(model)
	if result.Error != nil {
		return shared.NewStorageError("save inventory item", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewValidationError("quantity",
			fmt.Sprintf("%s: on-hand %s would drop below the reserved quantity", item.Name(), item.OnHand()))
	}
	return nil
}

// Reserve adds qty to reserved_quantity when the item is clean and has qty available
func (r *GormItemRepository) Reserve(ctx context.Context, ref inventory.MaterialRef, qty decimal.Decimal) (bool, error) {
	return r.conditionalUpdate(ctx, "reserve inventory", ref,
		"is_contaminated = ? AND quantity >= "+roundedSum("reserved_quantity", "+"),
		[]interface{}{false, qty},
		map[string]interface{}{
			"reserved_quantity": gorm.Expr(roundedSum("reserved_quantity", "+"), qty),
		},
	)
}

// ReleaseReservation subtracts qty from reserved_quantity when at least qty is reserved
func (r *GormItemRepository) ReleaseReservation(ctx context.Context, ref inventory.MaterialRef, qty decimal.Decimal) (bool, error) {
	return r.conditionalUpdate(ctx, "release reservation", ref,
		roundedSum("reserved_quantity", "-")+" >= 0",
		[]interface{}{qty},
		map[string]interface{}{
			"reserved_quantity": gorm.Expr(roundedSum("reserved_quantity", "-"), qty),
		},
	)
}

// Consume deducts qty from both quantity and reserved_quantity
func (r *GormItemRepository) Consume(ctx context.Context, ref inventory.MaterialRef, qty decimal.Decimal) (bool, error) {
	return r.conditionalUpdate(ctx, "consume inventory", ref,
		roundedSum("quantity", "-")+" >= 0 AND "+roundedSum("reserved_quantity", "-")+" >= 0",
		[]interface{}{qty, qty},
		map[string]interface{}{
			"quantity":          gorm.Expr(roundedSum("quantity", "-"), qty),
			"reserved_quantity": gorm.Expr(roundedSum("reserved_quantity", "-"), qty),
		},
	)
}

// roundedSum builds "ROUND(column op ?, scale)". SQLite keeps decimal columns as
// REAL, so every stored result and every guard is rounded to the column scale.
func roundedSum(column, op string) string {
	return fmt.Sprintf("ROUND(%s %s ?, %d)", column, op, inventory.QuantityScale)
}

func (r *GormItemRepository) conditionalUpdate(
	ctx context.Context,
	op string,
	ref inventory.MaterialRef,
	guard string,
	guardArgs []interface{},
	updates map[string]interface{},
) (bool, error) {
	if qtyArg, ok := guardArgs[len(guardArgs)-1].(decimal.Decimal); ok && qtyArg.IsNegative() {
		return false, fmt.Errorf("%s: quantity cannot be negative, got %s", op, qtyArg)
	}
	table, err := tableFor(ref.Type())
	if err != nil {
		return false, err
	}

	updates["updated_at"] = time.Now().UTC()
	args := append([]interface{}{ref.ID()}, guardArgs...)

	result := r.db.WithContext(ctx).Table(table).
		Where("id = ? AND "+guard, args...).
		Updates(updates)
	if result.Error != nil {
		return false, shared.NewStorageError(op, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func tableFor(materialType inventory.MaterialType) (string, error) {
	switch materialType {
	case inventory.MaterialTypeRawMaterial:
		return RawMaterialModel{}.TableName(), nil
	case inventory.MaterialTypeIntermediateProduct:
		return IntermediateProductModel{}.TableName(), nil
	default:
		return "", fmt.Errorf("unknown material type %q", materialType)
	}
}

func rowToItem(materialType inventory.MaterialType, row *InventoryColumns) (*inventory.Item, error) {
	ref, err := inventory.NewMaterialRef(materialType, row.ID)
	if err != nil {
		return nil, err
	}
	sku := ""
	if row.SKU != nil {
		sku = *row.SKU
	}
	return inventory.ReconstructItem(
		ref,
		shared.TenantID(row.TenantID),
		row.Name,
		sku,
		row.Quantity,
		row.ReservedQuantity,
		row.Unit,
		row.UnitCost,
		row.IsContaminated,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func itemToRow(item *inventory.Item) InventoryColumns {
	var sku *string
	if item.SKU() != "" {
		s := item.SKU()
		sku = &s
	}
	return InventoryColumns{
		ID:               item.ID(),
		TenantID:         item.TenantID().String(),
		Name:             item.Name(),
		SKU:              sku,
		Quantity:         item.OnHand(),
		ReservedQuantity: item.Reserved(),
		Unit:             item.Unit(),
		UnitCost:         item.UnitCost(),
		IsContaminated:   item.IsContaminated(),
		CreatedAt:        item.CreatedAt(),
		UpdatedAt:        item.UpdatedAt(),
	}
}
