package production

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
)

// AllocationStatus tracks a soft reservation of one material for one run
type AllocationStatus string

const (
	AllocationStatusAllocated AllocationStatus = "ALLOCATED"
	AllocationStatusConsumed  AllocationStatus = "CONSUMED"
	AllocationStatusReleased  AllocationStatus = "RELEASED"
)

// IsActive reports whether the allocation still holds or has used stock
func (s AllocationStatus) IsActive() bool {
	return s == AllocationStatusAllocated || s == AllocationStatusConsumed
}

// Allocation is the reservation of one material for one run. There is at most one
// allocation per (run, material); re-allocating after a release reuses the row.
//
// Lifecycle:
//
//	ALLOCATED -> CONSUMED (terminal)
//	ALLOCATED -> RELEASED -> ALLOCATED
type Allocation struct {
	id           string
	runID        string
	material     inventory.MaterialRef
	materialName string
	unit         string
	unitCost     decimal.Decimal
	allocated    decimal.Decimal
	consumed     decimal.Decimal
	status       AllocationStatus
	allocatedAt  time.Time
	consumedAt   *time.Time
	releasedAt   *time.Time
}

// NewAllocation records a fresh reservation. unitCost is a snapshot of the
// material's cost at reservation time.
func NewAllocation(
	runID string,
	material inventory.MaterialRef,
	materialName string,
	unit string,
	unitCost decimal.Decimal,
	quantity decimal.Decimal,
	now time.Time,
) *Allocation {
	return &Allocation{
		id:           uuid.New().String(),
		runID:        runID,
		material:     material,
		materialName: materialName,
		unit:         unit,
		unitCost:     unitCost,
		allocated:    quantity,
		consumed:     decimal.Zero,
		status:       AllocationStatusAllocated,
		allocatedAt:  now,
	}
}

// ReconstructAllocation rebuilds an allocation from persistence
func ReconstructAllocation(
	id string,
	runID string,
	material inventory.MaterialRef,
	materialName string,
	unit string,
	unitCost decimal.Decimal,
	allocated decimal.Decimal,
	consumed decimal.Decimal,
	status AllocationStatus,
	allocatedAt time.Time,
	consumedAt *time.Time,
	releasedAt *time.Time,
) *Allocation {
	return &Allocation{
		id:           id,
		runID:        runID,
		material:     material,
		materialName: materialName,
		unit:         unit,
		unitCost:     unitCost,
		allocated:    allocated,
		consumed:     consumed,
		status:       status,
		allocatedAt:  allocatedAt,
		consumedAt:   consumedAt,
		releasedAt:   releasedAt,
	}
}

func (a *Allocation) ID() string                         { return a.id }
func (a *Allocation) RunID() string                      { return a.runID }
func (a *Allocation) Material() inventory.MaterialRef    { return a.material }
func (a *Allocation) MaterialName() string               { return a.materialName }
func (a *Allocation) Unit() string                       { return a.unit }
func (a *Allocation) UnitCost() decimal.Decimal          { return a.unitCost }
func (a *Allocation) QuantityAllocated() decimal.Decimal { return a.allocated }
func (a *Allocation) QuantityConsumed() decimal.Decimal  { return a.consumed }
func (a *Allocation) Status() AllocationStatus           { return a.status }
func (a *Allocation) AllocatedAt() time.Time             { return a.allocatedAt }
func (a *Allocation) ConsumedAt() *time.Time             { return a.consumedAt }
func (a *Allocation) ReleasedAt() *time.Time             { return a.releasedAt }

// Outstanding is the reserved quantity not yet consumed
func (a *Allocation) Outstanding() decimal.Decimal {
	if a.status != AllocationStatusAllocated {
		return decimal.Zero
	}
	return a.allocated.Sub(a.consumed)
}

// Cost is the consumed quantity valued at the snapshot unit cost
func (a *Allocation) Cost() decimal.Decimal {
	return a.consumed.Mul(a.unitCost)
}

// Consume marks the whole allocated quantity as used and returns the quantity
// that must be deducted from stock
func (a *Allocation) Consume(now time.Time) (decimal.Decimal, error) {
	if a.status != AllocationStatusAllocated {
		return decimal.Zero, &AllocationStateError{AllocationID: a.id, Status: a.status, Operation: "consume"}
	}
	delta := a.allocated.Sub(a.consumed)
	a.consumed = a.allocated
	a.status = AllocationStatusConsumed
	a.consumedAt = &now
	return delta, nil
}

// Release gives back the unconsumed quantity and returns it
func (a *Allocation) Release(now time.Time) (decimal.Decimal, error) {
	if a.status != AllocationStatusAllocated {
		return decimal.Zero, &AllocationStateError{AllocationID: a.id, Status: a.status, Operation: "release"}
	}
	outstanding := a.allocated.Sub(a.consumed)
	a.status = AllocationStatusReleased
	a.releasedAt = &now
	return outstanding, nil
}

// Reallocate revives a RELEASED allocation with a new quantity and cost snapshot
func (a *Allocation) Reallocate(quantity, unitCost decimal.Decimal, materialName string, now time.Time) error {
	if a.status != AllocationStatusReleased {
		return &AllocationStateError{AllocationID: a.id, Status: a.status, Operation: "reallocate"}
	}
	a.allocated = quantity
	a.consumed = decimal.Zero
	a.unitCost = unitCost
	if materialName != "" {
		a.materialName = materialName
	}
	a.status = AllocationStatusAllocated
	a.allocatedAt = now
	a.consumedAt = nil
	a.releasedAt = nil
	return nil
}
