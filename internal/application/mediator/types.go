package mediator

import (
	"context"
)

// Request is a production or catalog command or query, e.g. *AllocateIngredientsCommand
type Request interface{}

// Response is whatever the request's handler returns
type Response interface{}

// RequestHandler serves one request type
type RequestHandler interface {
	Handle(ctx context.Context, request Request) (Response, error)
}

// HandlerFunc adapts a function to the middleware chain
type HandlerFunc func(ctx context.Context, request Request) (Response, error)

// Middleware wraps every dispatched request. The CLI chains logging, command
// metrics and struct validation in that order.
type Middleware func(ctx context.Context, request Request, next HandlerFunc) (Response, error)
