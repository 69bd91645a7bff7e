package config

import "time"

// DefaultProductionSteps is the step list of a run planned without explicit steps
var DefaultProductionSteps = []string{"Preparation", "Production", "Quality Check", "Packaging"}

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "bakery.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "bakery"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "bakery"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	// Metrics defaults
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "bakery"
	}

	// Production defaults
	if cfg.Production.TenantID == "" {
		cfg.Production.TenantID = "default"
	}
	if cfg.Production.BatchPrefix == "" {
		cfg.Production.BatchPrefix = "BATCH"
	}
	if len(cfg.Production.DefaultSteps) == 0 {
		cfg.Production.DefaultSteps = append([]string(nil), DefaultProductionSteps...)
	}
}
