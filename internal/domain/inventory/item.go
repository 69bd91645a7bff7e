package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// Item is a stock record for a raw material or an intermediate product.
//
// Invariants:
//   - 0 <= reserved <= onHand
//   - available = onHand - reserved, or zero while the item is contaminated
//
// Reserved and on-hand quantities are only ever changed through the conditional
// updates of ItemRepository; the entity itself is a read model.
type Item struct {
	ref          MaterialRef
	tenantID     shared.TenantID
	name         string
	sku          string
	onHand       decimal.Decimal
	reserved     decimal.Decimal
	unit         string
	unitCost     decimal.Decimal
	contaminated bool
	createdAt    time.Time
	updatedAt    time.Time
}

// NewItem creates a fresh inventory item with a generated id
func NewItem(
	materialType MaterialType,
	tenantID shared.TenantID,
	name string,
	unit string,
	onHand decimal.Decimal,
	unitCost decimal.Decimal,
	now time.Time,
) (*Item, error) {
	ref, err := NewMaterialRef(materialType, uuid.New().String())
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("name", "inventory item name cannot be empty")
	}
	if strings.TrimSpace(unit) == "" {
		return nil, shared.NewValidationError("unit", "inventory item unit cannot be empty")
	}
	if onHand.IsNegative() {
		return nil, shared.NewValidationError("quantity", fmt.Sprintf("on-hand quantity cannot be negative, got %s", onHand))
	}
	if unitCost.IsNegative() {
		return nil, shared.NewValidationError("unit_cost", "unit cost cannot be negative")
	}
	return &Item{
		ref:       ref,
		tenantID:  tenantID,
		name:      strings.TrimSpace(name),
		onHand:    RoundQuantity(onHand),
		reserved:  decimal.Zero,
		unit:      unit,
		unitCost:  unitCost,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructItem rebuilds an item from persistence
func ReconstructItem(
	ref MaterialRef,
	tenantID shared.TenantID,
	name string,
	sku string,
	onHand decimal.Decimal,
	reserved decimal.Decimal,
	unit string,
	unitCost decimal.Decimal,
	contaminated bool,
	createdAt time.Time,
	updatedAt time.Time,
) *Item {
	return &Item{
		ref:          ref,
		tenantID:     tenantID,
		name:         name,
		sku:          sku,
		onHand:       onHand,
		reserved:     reserved,
		unit:         unit,
		unitCost:     unitCost,
		contaminated: contaminated,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (i *Item) Ref() MaterialRef               { return i.ref }
func (i *Item) ID() string                     { return i.ref.ID() }
func (i *Item) Type() MaterialType             { return i.ref.Type() }
func (i *Item) TenantID() shared.TenantID      { return i.tenantID }
func (i *Item) Name() string                   { return i.name }
func (i *Item) SKU() string                    { return i.sku }
func (i *Item) OnHand() decimal.Decimal        { return i.onHand }
func (i *Item) Reserved() decimal.Decimal      { return i.reserved }
func (i *Item) Unit() string                   { return i.unit }
func (i *Item) UnitCost() decimal.Decimal      { return i.unitCost }
func (i *Item) IsContaminated() bool           { return i.contaminated }
func (i *Item) CreatedAt() time.Time           { return i.createdAt }
func (i *Item) UpdatedAt() time.Time           { return i.updatedAt }
func (i *Item) SetSKU(sku string)              { i.sku = sku }
func (i *Item) MarkContaminated(flag bool)     { i.contaminated = flag }

// Available is the quantity that can still be reserved
func (i *Item) Available() decimal.Decimal {
	if i.contaminated {
		return decimal.Zero
	}
	available := i.onHand.Sub(i.reserved)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// CheckInvariant returns a ConsistencyError when the stored quantities violate 0 <= reserved <= onHand
func (i *Item) CheckInvariant() error {
	if i.reserved.IsNegative() || i.reserved.GreaterThan(i.onHand) {
		return &ConsistencyError{
			Material: i.ref,
			Message: fmt.Sprintf("reserved quantity %s outside [0, %s] for %s",
				i.reserved, i.onHand, i.name),
		}
	}
	return nil
}
