package ntpcheck

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerClient_PassesThroughSuccess(t *testing.T) {
	querier := &fakeQuerier{offset: 5 * time.Millisecond}
	cb := NewCircuitBreakerClient(querier, DefaultCircuitBreakerConfig())

	resp, err := cb.Query(context.Background(), "a.example")

	require.NoError(t, err)
	assert.Equal(t, "a.example", resp.Server)
	assert.Equal(t, gobreaker.StateClosed, cb.GetState("a.example"))
}

func TestCircuitBreakerClient_OpensAfterFailures(t *testing.T) {
	querier := &fakeQuerier{err: errors.New("unreachable")}
	cb := NewCircuitBreakerClient(querier, NewCircuitBreakerConfigWithThreshold(
		1, time.Minute, time.Minute, 0.5))

	for i := 0; i < 5; i++ {
		_, _ = cb.Query(context.Background(), "a.example")
	}

	assert.Equal(t, gobreaker.StateOpen, cb.GetState("a.example"))

	// While open no query reaches the underlying querier.
	calls := querier.calls
	_, err := cb.Query(context.Background(), "a.example")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, calls, querier.calls)
}

func TestCircuitBreakerClient_PerServerIsolation(t *testing.T) {
	querier := &fakeQuerier{err: errors.New("unreachable")}
	cb := NewCircuitBreakerClient(querier, NewCircuitBreakerConfigWithThreshold(
		1, time.Minute, time.Minute, 0.5))

	for i := 0; i < 5; i++ {
		_, _ = cb.Query(context.Background(), "bad.example")
	}

	assert.Equal(t, gobreaker.StateOpen, cb.GetState("bad.example"))
	assert.Equal(t, gobreaker.StateClosed, cb.GetState("good.example"))
}

func TestCircuitBreakerClient_ZeroConfigGetsDefaults(t *testing.T) {
	querier := &fakeQuerier{offset: 0}
	cb := NewCircuitBreakerClient(querier, CircuitBreakerConfig{})

	_, err := cb.Query(context.Background(), "a.example")
	assert.NoError(t, err)
}
