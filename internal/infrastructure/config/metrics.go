package config

// MetricsConfig holds metrics collection configuration
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active
	Enabled bool `mapstructure:"enabled"`

	// Namespace prefixes every metric name (default: bakery)
	Namespace string `mapstructure:"namespace" validate:"omitempty,alphanum"`

	// TextfilePath receives a Prometheus text-format snapshot when a command exits.
	// Empty disables the snapshot.
	TextfilePath string `mapstructure:"textfile_path"`
}
