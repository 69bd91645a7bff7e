package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// ProductionMetricsCollector handles allocation, release, completion and state metrics
type ProductionMetricsCollector struct {
	db *gorm.DB

	// Event metrics
	allocationsTotal     *prometheus.CounterVec
	allocationDuration   *prometheus.HistogramVec
	shortfallsTotal      *prometheus.CounterVec
	releasesTotal        *prometheus.CounterVec
	completionsTotal     *prometheus.CounterVec
	completionDuration   *prometheus.HistogramVec
	producedQuantity     *prometheus.CounterVec
	productionCost       *prometheus.CounterVec
	runTransitionsTotal  *prometheus.CounterVec
	stepTransitionsTotal *prometheus.CounterVec

	// Snapshot gauges, filled by Refresh
	runsByStatus     *prometheus.GaugeVec
	reservedQuantity *prometheus.GaugeVec
}

// NewProductionMetricsCollector creates the collector. db may be nil, in which case
// Refresh does nothing.
func NewProductionMetricsCollector(db *gorm.DB) *ProductionMetricsCollector {
	return &ProductionMetricsCollector{
		db: db,

		allocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "allocations_total",
				Help:      "Ingredient allocation calls by outcome",
			},
			[]string{"tenant", "outcome"},
		),

		allocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "allocation_duration_seconds",
				Help:      "Duration of the allocation transaction",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"tenant", "outcome"},
		),

		shortfallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "shortfalls_total",
				Help:      "Materials that could not cover a requirement",
			},
			[]string{"tenant", "material_type"},
		),

		releasesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "released_allocations_total",
				Help:      "Allocations released back to inventory by reason",
			},
			[]string{"tenant", "reason"},
		),

		completionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "completions_total",
				Help:      "Completed production runs by product",
			},
			[]string{"tenant", "product"},
		),

		completionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "completion_duration_seconds",
				Help:      "Duration of the completion transaction",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"tenant"},
		),

		producedQuantity: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "produced_quantity_total",
				Help:      "Finished product quantity produced",
			},
			[]string{"tenant", "product"},
		),

		productionCost: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cost_total",
				Help:      "Cost of consumed ingredients",
			},
			[]string{"tenant", "product"},
		),

		runTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "run_transitions_total",
				Help:      "Production run status transitions",
			},
			[]string{"tenant", "from", "to"},
		),

		stepTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "step_transitions_total",
				Help:      "Production step transitions by resulting status",
			},
			[]string{"tenant", "status"},
		),

		runsByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "runs",
				Help:      "Production runs by status",
			},
			[]string{"tenant", "status"},
		),

		reservedQuantity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reserved_quantity",
				Help:      "Quantity currently reserved by material type",
			},
			[]string{"tenant", "material_type"},
		),
	}
}

// Register registers all production metrics with the Prometheus registry
func (c *ProductionMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.allocationsTotal,
		c.allocationDuration,
		c.shortfallsTotal,
		c.releasesTotal,
		c.completionsTotal,
		c.completionDuration,
		c.producedQuantity,
		c.productionCost,
		c.runTransitionsTotal,
		c.stepTransitionsTotal,
		c.runsByStatus,
		c.reservedQuantity,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// Refresh recomputes the snapshot gauges from the database
func (c *ProductionMetricsCollector) Refresh(ctx context.Context) error {
	if c.db == nil {
		return nil
	}

	c.runsByStatus.Reset()
	c.reservedQuantity.Reset()

	var runCounts []struct {
		TenantID string
		Status   string
		Count    int64
	}
	err := c.db.WithContext(ctx).Raw(`
		SELECT tenant_id, status, COUNT(*) as count
		FROM production_runs
		GROUP BY tenant_id, status
	`).Scan(&runCounts).Error
	if err != nil {
		return fmt.Errorf("failed to count production runs: %w", err)
	}
	for _, record := range runCounts {
		c.runsByStatus.WithLabelValues(record.TenantID, record.Status).Set(float64(record.Count))
	}

	for _, source := range []struct {
		table        string
		materialType string
	}{
		{"raw_materials", "RAW_MATERIAL"},
		{"intermediate_products", "INTERMEDIATE_PRODUCT"},
	} {
		var reserved []struct {
			TenantID string
			Total    float64
		}
		err := c.db.WithContext(ctx).Raw(fmt.Sprintf(`
			SELECT tenant_id, COALESCE(SUM(reserved_quantity), 0) as total
			FROM %s
			GROUP BY tenant_id
		`, source.table)).Scan(&reserved).Error
		if err != nil {
			return fmt.Errorf("failed to sum reserved %s: %w", source.table, err)
		}
		for _, record := range reserved {
			c.reservedQuantity.WithLabelValues(record.TenantID, source.materialType).Set(record.Total)
		}
	}

	return nil
}

func (c *ProductionMetricsCollector) RecordAllocation(tenantID string, outcome string, materials int, durationSeconds float64) {
	c.allocationsTotal.WithLabelValues(tenantID, outcome).Inc()
	c.allocationDuration.WithLabelValues(tenantID, outcome).Observe(durationSeconds)
}

func (c *ProductionMetricsCollector) RecordShortfall(tenantID string, materialType string) {
	c.shortfallsTotal.WithLabelValues(tenantID, materialType).Inc()
}

func (c *ProductionMetricsCollector) RecordRelease(tenantID string, reason string, materials int) {
	c.releasesTotal.WithLabelValues(tenantID, reason).Add(float64(materials))
}

func (c *ProductionMetricsCollector) RecordCompletion(tenantID string, product string, quantity float64, cost float64, durationSeconds float64) {
	c.completionsTotal.WithLabelValues(tenantID, product).Inc()
	c.completionDuration.WithLabelValues(tenantID).Observe(durationSeconds)
	c.producedQuantity.WithLabelValues(tenantID, product).Add(quantity)
	c.productionCost.WithLabelValues(tenantID, product).Add(cost)
}

func (c *ProductionMetricsCollector) RecordRunTransition(tenantID string, from string, to string) {
	c.runTransitionsTotal.WithLabelValues(tenantID, from, to).Inc()
}

func (c *ProductionMetricsCollector) RecordStepTransition(tenantID string, status string) {
	c.stepTransitionsTotal.WithLabelValues(tenantID, status).Inc()
}
