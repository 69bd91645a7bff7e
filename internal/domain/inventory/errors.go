package inventory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Shortfall describes one material that cannot cover its requirement
type Shortfall struct {
	Material  MaterialRef
	Name      string
	Unit      string
	Required  decimal.Decimal
	Available decimal.Decimal
}

// Missing is the quantity that would have to be restocked
func (s Shortfall) Missing() decimal.Decimal {
	missing := s.Required.Sub(s.Available)
	if missing.IsNegative() {
		return decimal.Zero
	}
	return missing
}

// InsufficientInventoryError rejects an allocation; no reservation from the failing call persists
type InsufficientInventoryError struct {
	RunID      string
	Shortfalls []Shortfall
}

func (e *InsufficientInventoryError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		label := s.Name
		if label == "" {
			label = s.Material.String()
		}
		parts = append(parts, fmt.Sprintf("%s: required %s %s, available %s (short %s)",
			label, s.Required, s.Unit, s.Available, s.Missing()))
	}
	return fmt.Sprintf("insufficient inventory for run %s: %s", e.RunID, strings.Join(parts, "; "))
}

// ConsistencyError signals a broken stock invariant. It is never user correctable.
type ConsistencyError struct {
	Material MaterialRef
	Message  string
}

func (e *ConsistencyError) Error() string {
	if e.Material.IsValid() {
		return fmt.Sprintf("inventory consistency violation on %s: %s", e.Material, e.Message)
	}
	return fmt.Sprintf("inventory consistency violation: %s", e.Message)
}

// MaterialNotFoundError is returned when an ingredient references a missing inventory item
type MaterialNotFoundError struct {
	Material MaterialRef
}

func (e *MaterialNotFoundError) Error() string {
	return fmt.Sprintf("inventory item not found: %s", e.Material)
}
