package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// QualityStatus is the quality-control state of a finished batch
type QualityStatus string

const (
	QualityStatusPending  QualityStatus = "PENDING"
	QualityStatusApproved QualityStatus = "APPROVED"
	QualityStatusRejected QualityStatus = "REJECTED"
)

// FinishedProduct is one produced batch. Batches of the same product share a SKU;
// the batch number is unique per production run.
type FinishedProduct struct {
	id              string
	tenantID        shared.TenantID
	name            string
	sku             string
	batchNumber     string
	quantity        decimal.Decimal
	reserved        decimal.Decimal
	unit            string
	costToProduce   decimal.Decimal
	qualityStatus   QualityStatus
	productionRunID string
	productionDate  time.Time
	expirationDate  *time.Time
	createdAt       time.Time
}

// FinishedProductParams groups the inputs of NewFinishedProduct
type FinishedProductParams struct {
	TenantID        shared.TenantID
	Name            string
	SKU             string
	BatchNumber     string
	Quantity        decimal.Decimal
	Unit            string
	CostToProduce   decimal.Decimal
	ProductionRunID string
	ProductionDate  time.Time
	ShelfLife       time.Duration
}

// NewFinishedProduct creates a batch record in PENDING quality status
func NewFinishedProduct(p FinishedProductParams) (*FinishedProduct, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, shared.NewValidationError("name", "finished product name cannot be empty")
	}
	if p.SKU == "" {
		return nil, shared.NewValidationError("sku", "finished product requires a sku")
	}
	if p.BatchNumber == "" {
		return nil, shared.NewValidationError("batch_number", "finished product requires a batch number")
	}
	if !p.Quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity", "finished product quantity must be positive")
	}
	if p.CostToProduce.IsNegative() {
		return nil, shared.NewValidationError("cost_to_produce", "cost cannot be negative")
	}

	var expiration *time.Time
	if p.ShelfLife > 0 {
		exp := p.ProductionDate.Add(p.ShelfLife)
		expiration = &exp
	}

	return &FinishedProduct{
		id:              uuid.New().String(),
		tenantID:        p.TenantID,
		name:            strings.TrimSpace(p.Name),
		sku:             p.SKU,
		batchNumber:     p.BatchNumber,
		quantity:        RoundQuantity(p.Quantity),
		reserved:        decimal.Zero,
		unit:            p.Unit,
		costToProduce:   p.CostToProduce.Round(2),
		qualityStatus:   QualityStatusPending,
		productionRunID: p.ProductionRunID,
		productionDate:  p.ProductionDate,
		expirationDate:  expiration,
		createdAt:       p.ProductionDate,
	}, nil
}

// ReconstructFinishedProduct rebuilds a batch from persistence
func ReconstructFinishedProduct(
	id string,
	tenantID shared.TenantID,
	name string,
	sku string,
	batchNumber string,
	quantity decimal.Decimal,
	reserved decimal.Decimal,
	unit string,
	costToProduce decimal.Decimal,
	qualityStatus QualityStatus,
	productionRunID string,
	productionDate time.Time,
	expirationDate *time.Time,
	createdAt time.Time,
) *FinishedProduct {
	return &FinishedProduct{
		id:              id,
		tenantID:        tenantID,
		name:            name,
		sku:             sku,
		batchNumber:     batchNumber,
		quantity:        quantity,
		reserved:        reserved,
		unit:            unit,
		costToProduce:   costToProduce,
		qualityStatus:   qualityStatus,
		productionRunID: productionRunID,
		productionDate:  productionDate,
		expirationDate:  expirationDate,
		createdAt:       createdAt,
	}
}

func (f *FinishedProduct) ID() string                     { return f.id }
func (f *FinishedProduct) TenantID() shared.TenantID      { return f.tenantID }
func (f *FinishedProduct) Name() string                   { return f.name }
func (f *FinishedProduct) SKU() string                    { return f.sku }
func (f *FinishedProduct) BatchNumber() string            { return f.batchNumber }
func (f *FinishedProduct) Quantity() decimal.Decimal      { return f.quantity }
func (f *FinishedProduct) Reserved() decimal.Decimal      { return f.reserved }
func (f *FinishedProduct) Unit() string                   { return f.unit }
func (f *FinishedProduct) CostToProduce() decimal.Decimal { return f.costToProduce }
func (f *FinishedProduct) QualityStatus() QualityStatus   { return f.qualityStatus }
func (f *FinishedProduct) ProductionRunID() string        { return f.productionRunID }
func (f *FinishedProduct) ProductionDate() time.Time      { return f.productionDate }
func (f *FinishedProduct) ExpirationDate() *time.Time     { return f.expirationDate }
func (f *FinishedProduct) CreatedAt() time.Time           { return f.createdAt }

// UnitCost is the cost to produce one unit of the batch
func (f *FinishedProduct) UnitCost() decimal.Decimal {
	if f.quantity.IsZero() {
		return decimal.Zero
	}
	return f.costToProduce.Div(f.quantity).Round(4)
}
