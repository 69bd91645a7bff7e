package config

import "time"

// ProductionConfig holds defaults for production runs and finished batches
type ProductionConfig struct {
	// TenantID scopes CLI commands that do not pass --tenant
	TenantID string `mapstructure:"tenant_id" validate:"required"`

	// BatchPrefix starts every generated batch number
	BatchPrefix string `mapstructure:"batch_prefix" validate:"required,alphanum,max=16"`

	// DefaultSteps are used when a run is planned without explicit steps
	DefaultSteps []string `mapstructure:"default_steps" validate:"min=1,dive,required"`

	// ShelfLifeDays sets the expiration date of finished batches; 0 leaves it empty
	ShelfLifeDays int `mapstructure:"shelf_life_days" validate:"min=0"`

	// ReleaseOnHold releases a run's allocations when it is put on hold
	ReleaseOnHold bool `mapstructure:"release_on_hold"`
}

// ShelfLife returns the configured shelf life as a duration
func (c ProductionConfig) ShelfLife() time.Duration {
	return time.Duration(c.ShelfLifeDays) * 24 * time.Hour
}
