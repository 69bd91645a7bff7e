package common

// Re-exports of the mediator types so handlers can keep depending on common only.

import (
	"github.com/Oscarts/backery2-app-sub005/internal/application/mediator"
)

type (
	Request        = mediator.Request
	Response       = mediator.Response
	RequestHandler = mediator.RequestHandler
	HandlerFunc    = mediator.HandlerFunc
	Middleware     = mediator.Middleware
	Mediator       = mediator.Mediator
)

var (
	NewMediator = mediator.NewMediator
)
