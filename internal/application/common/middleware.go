package common

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RequestName returns the bare type name of a request, e.g. "AllocateIngredientsCommand"
func RequestName(request Request) string {
	if request == nil {
		return "UnknownRequest"
	}
	fullName := strings.TrimPrefix(reflect.TypeOf(request).String(), "*")
	if idx := strings.LastIndex(fullName, "."); idx >= 0 {
		return fullName[idx+1:]
	}
	return fullName
}

// LoggingMiddleware logs every request with its duration and outcome using the
// context logger, and injects base into the context when none is present.
func LoggingMiddleware(base Logger) Middleware {
	return func(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
		if _, ok := ctx.Value(loggerKey).(Logger); !ok && base != nil {
			ctx = WithLogger(ctx, base)
		}
		logger := LoggerFromContext(ctx)
		name := RequestName(request)

		start := time.Now()
		response, err := next(ctx, request)
		elapsed := time.Since(start)

		if err != nil {
			logger.Warn("request failed", "request", name, "duration", elapsed, "error", err)
			return response, err
		}
		logger.Debug("request handled", "request", name, "duration", elapsed)
		return response, nil
	}
}

// ValidationMiddleware checks `validate` struct tags on requests before dispatch
func ValidationMiddleware(v *validator.Validate) Middleware {
	if v == nil {
		v = validator.New()
	}
	return func(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
		value := reflect.ValueOf(request)
		if value.Kind() == reflect.Ptr && !value.IsNil() && value.Elem().Kind() == reflect.Struct {
			if err := v.StructCtx(ctx, request); err != nil {
				return nil, err
			}
		}
		return next(ctx, request)
	}
}
