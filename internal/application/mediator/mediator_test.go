package mediator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct{ Value string }

type pingHandler struct{}

func (pingHandler) Handle(ctx context.Context, request Request) (Response, error) {
	cmd := request.(*pingCommand)
	if cmd.Value == "" {
		return nil, errors.New("empty ping")
	}
	return "pong:" + cmd.Value, nil
}

func TestMediator_SendDispatchesToRegisteredHandler(t *testing.T) {
	// Arrange
	m := NewMediator()
	require.NoError(t, RegisterHandler[*pingCommand](m, pingHandler{}))

	// Act
	resp, err := m.Send(context.Background(), &pingCommand{Value: "a"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "pong:a", resp)
}

func TestMediator_RejectsDuplicateRegistration(t *testing.T) {
	m := NewMediator()
	require.NoError(t, RegisterHandler[*pingCommand](m, pingHandler{}))

	err := RegisterHandler[*pingCommand](m, pingHandler{})

	assert.Error(t, err)
}

func TestMediator_UnknownRequestType(t *testing.T) {
	m := NewMediator()

	_, err := m.Send(context.Background(), &pingCommand{Value: "a"})

	assert.ErrorContains(t, err, "no handler registered")
}

func TestMediator_MiddlewareRunsOutermostFirst(t *testing.T) {
	// Arrange
	m := NewMediator()
	require.NoError(t, RegisterHandler[*pingCommand](m, pingHandler{}))

	var order []string
	trace := func(name string) Middleware {
		return func(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
			order = append(order, name+":before")
			resp, err := next(ctx, request)
			order = append(order, name+":after")
			return resp, err
		}
	}
	m.RegisterMiddleware(trace("outer"))
	m.RegisterMiddleware(trace("inner"))

	// Act
	_, err := m.Send(context.Background(), &pingCommand{Value: "x"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"outer:before", "inner:before", "inner:after", "outer:after"}, order)
}
