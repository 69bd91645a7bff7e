package inventory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// QuantityScale is the number of decimal places quantities are stored with
const QuantityScale int32 = 4

// MaterialType distinguishes the two kinds of stock a recipe can draw from
type MaterialType string

const (
	MaterialTypeRawMaterial         MaterialType = "RAW_MATERIAL"
	MaterialTypeIntermediateProduct MaterialType = "INTERMEDIATE_PRODUCT"
)

// ParseMaterialType converts a stored or user supplied string into a MaterialType
func ParseMaterialType(raw string) (MaterialType, error) {
	switch MaterialType(strings.ToUpper(strings.TrimSpace(raw))) {
	case MaterialTypeRawMaterial:
		return MaterialTypeRawMaterial, nil
	case MaterialTypeIntermediateProduct:
		return MaterialTypeIntermediateProduct, nil
	default:
		return "", fmt.Errorf("unknown material type %q", raw)
	}
}

// MaterialRef identifies exactly one inventory item: either a raw material or an
// intermediate product. The zero value is invalid.
type MaterialRef struct {
	materialType MaterialType
	id           string
}

// RawMaterial references a raw material by id
func RawMaterial(id string) MaterialRef {
	return MaterialRef{materialType: MaterialTypeRawMaterial, id: id}
}

// IntermediateProduct references an intermediate product by id
func IntermediateProduct(id string) MaterialRef {
	return MaterialRef{materialType: MaterialTypeIntermediateProduct, id: id}
}

// NewMaterialRef builds a reference from a type and id read from storage
func NewMaterialRef(materialType MaterialType, id string) (MaterialRef, error) {
	if strings.TrimSpace(id) == "" {
		return MaterialRef{}, fmt.Errorf("material id cannot be empty")
	}
	switch materialType {
	case MaterialTypeRawMaterial:
		return RawMaterial(id), nil
	case MaterialTypeIntermediateProduct:
		return IntermediateProduct(id), nil
	default:
		return MaterialRef{}, fmt.Errorf("unknown material type %q", materialType)
	}
}

func (r MaterialRef) Type() MaterialType { return r.materialType }
func (r MaterialRef) ID() string         { return r.id }

// IsValid reports whether the reference names a known material type and a non-empty id
func (r MaterialRef) IsValid() bool {
	if r.id == "" {
		return false
	}
	return r.materialType == MaterialTypeRawMaterial || r.materialType == MaterialTypeIntermediateProduct
}

// Key is a stable map/sort key for the reference
func (r MaterialRef) Key() string {
	return string(r.materialType) + ":" + r.id
}

func (r MaterialRef) String() string {
	return r.Key()
}

// RoundQuantity normalizes a quantity to the stored scale
func RoundQuantity(q decimal.Decimal) decimal.Decimal {
	return q.Round(QuantityScale)
}
