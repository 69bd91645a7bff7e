package shared

import "strings"

// TenantID scopes every recipe, inventory item, run and finished product to one bakery client
type TenantID string

// DefaultTenant is used by single-tenant installs and the CLI when no tenant is given
const DefaultTenant TenantID = "default"

func NewTenantID(raw string) (TenantID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", NewValidationError("tenant", "tenant id cannot be empty")
	}
	return TenantID(trimmed), nil
}

func (t TenantID) String() string {
	return string(t)
}
