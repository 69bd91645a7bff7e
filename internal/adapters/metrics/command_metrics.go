package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/recipe"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/shared"
)

// CommandMetricsCollector handles command/query execution metrics
type CommandMetricsCollector struct {
	commandDuration *prometheus.HistogramVec
	commandsTotal   *prometheus.CounterVec
}

// NewCommandMetricsCollector creates a new command metrics collector
func NewCommandMetricsCollector() *CommandMetricsCollector {
	return &CommandMetricsCollector{
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "mediator",
				Name:      "command_duration_seconds",
				Help:      "Command execution duration distribution",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0},
			},
			[]string{"command", "outcome"},
		),

		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mediator",
				Name:      "commands_total",
				Help:      "Total number of commands executed by type and outcome",
			},
			[]string{"command", "outcome"},
		),
	}
}

// Register registers all command metrics with the Prometheus registry
func (c *CommandMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	for _, metric := range []prometheus.Collector{c.commandDuration, c.commandsTotal} {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

// RecordCommandExecution records command execution metrics
func (c *CommandMetricsCollector) RecordCommandExecution(commandName string, duration float64, err error) {
	outcome := ClassifyError(err)
	c.commandDuration.WithLabelValues(commandName, outcome).Observe(duration)
	c.commandsTotal.WithLabelValues(commandName, outcome).Inc()
}

// ClassifyError maps an error onto a low-cardinality outcome label
func ClassifyError(err error) string {
	if err == nil {
		return "success"
	}

	var (
		insufficient *inventory.InsufficientInventoryError
		consistency  *inventory.ConsistencyError
		incomplete   *production.IncompleteStepsError
		transition   *production.InvalidTransitionError
		stepErr      *production.InvalidStepTransitionError
		invalid      *recipe.InvalidRecipeError
		storage      *shared.StorageError
		notFound     *shared.NotFoundError
		runMissing   *production.RunNotFoundError
		recipeGone   *recipe.RecipeNotFoundError
		materialGone *inventory.MaterialNotFoundError
	)

	switch {
	case errors.As(err, &insufficient):
		return "insufficient_inventory"
	case errors.As(err, &consistency):
		return "consistency_error"
	case errors.As(err, &incomplete):
		return "incomplete_steps"
	case errors.As(err, &transition), errors.As(err, &stepErr):
		return "invalid_transition"
	case errors.As(err, &invalid):
		return "invalid_recipe"
	case errors.As(err, &storage):
		return "storage_error"
	case errors.As(err, &notFound), errors.As(err, &runMissing), errors.As(err, &recipeGone), errors.As(err, &materialGone):
		return "not_found"
	default:
		return "error"
	}
}
