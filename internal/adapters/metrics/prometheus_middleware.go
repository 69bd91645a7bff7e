package metrics

import (
	"context"
	"time"

	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/application/mediator"
)

// PrometheusMiddleware creates a middleware that records command execution metrics.
//
// Duration and count are labelled with the bare command name and an outcome derived
// from the returned error, e.g. "insufficient_inventory" or "incomplete_steps".
func PrometheusMiddleware(collector *CommandMetricsCollector) mediator.Middleware {
	return func(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) (mediator.Response, error) {
		// Skip metrics if collector is nil (metrics disabled)
		if collector == nil {
			return next(ctx, request)
		}

		start := time.Now()
		response, err := next(ctx, request)
		collector.RecordCommandExecution(common.RequestName(request), time.Since(start).Seconds(), err)

		return response, err
	}
}
