package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Subsystem for production core metrics
	subsystem = "production"

	defaultNamespace = "bakery"
)

var (
	// namespace prefixes every metric name; set by InitRegistry
	namespace = defaultNamespace

	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalProductionCollector is set by SetGlobalProductionCollector when metrics are enabled
	globalProductionCollector ProductionMetricsRecorder
)

// ProductionMetricsRecorder defines the interface for recording production events.
// Application services call the package-level Record functions, which forward here.
type ProductionMetricsRecorder interface {
	RecordAllocation(tenantID string, outcome string, materials int, durationSeconds float64)
	RecordShortfall(tenantID string, materialType string)
	RecordRelease(tenantID string, reason string, materials int)
	RecordCompletion(tenantID string, product string, quantity float64, cost float64, durationSeconds float64)
	RecordRunTransition(tenantID string, from string, to string)
	RecordStepTransition(tenantID string, status string)
}

// InitRegistry initializes the Prometheus registry.
// Should be called once at application startup if metrics are enabled.
func InitRegistry(ns string) {
	if ns != "" {
		namespace = ns
	}
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry, nil when metrics are not initialized
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// Reset disables metrics and drops the global collector
func Reset() {
	Registry = nil
	globalProductionCollector = nil
	namespace = defaultNamespace
}

// WriteTextfile dumps the registry in the node-exporter textfile format
func WriteTextfile(path string) error {
	if Registry == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, Registry)
}

// SetGlobalProductionCollector sets the global production metrics collector
func SetGlobalProductionCollector(collector ProductionMetricsRecorder) {
	globalProductionCollector = collector
}

// RecordAllocation records the outcome of one AllocateIngredients call
func RecordAllocation(tenantID string, outcome string, materials int, durationSeconds float64) {
	if globalProductionCollector != nil {
		globalProductionCollector.RecordAllocation(tenantID, outcome, materials, durationSeconds)
	}
}

// RecordShortfall records one material that could not cover its requirement
func RecordShortfall(tenantID string, materialType string) {
	if globalProductionCollector != nil {
		globalProductionCollector.RecordShortfall(tenantID, materialType)
	}
}

// RecordRelease records released allocations
func RecordRelease(tenantID string, reason string, materials int) {
	if globalProductionCollector != nil {
		globalProductionCollector.RecordRelease(tenantID, reason, materials)
	}
}

// RecordCompletion records a completed production run
func RecordCompletion(tenantID string, product string, quantity float64, cost float64, durationSeconds float64) {
	if globalProductionCollector != nil {
		globalProductionCollector.RecordCompletion(tenantID, product, quantity, cost, durationSeconds)
	}
}

// RecordRunTransition records a run status change
func RecordRunTransition(tenantID string, from string, to string) {
	if globalProductionCollector != nil {
		globalProductionCollector.RecordRunTransition(tenantID, from, to)
	}
}

// RecordStepTransition records a step reaching a new status
func RecordStepTransition(tenantID string, status string) {
	if globalProductionCollector != nil {
		globalProductionCollector.RecordStepTransition(tenantID, status)
	}
}
