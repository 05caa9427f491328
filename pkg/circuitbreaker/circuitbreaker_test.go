package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func probeConfig() Config {
	return Config{
		FailureThreshold:    2,
		SuccessThreshold:    2,
		Timeout:             50 * time.Millisecond,
		MaxRequestsHalfOpen: 3,
	}
}

func tripOpen(t *testing.T, cb *CircuitBreaker) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_ = cb.Execute(ctx, func() error { return errBoom })
	}
	require.Equal(t, StateOpen, cb.GetState())
}

func TestClosedStatePassesThrough(t *testing.T) {
	cb := New(DefaultConfig())

	err := cb.Execute(context.Background(), func() error { return nil })

	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestFailureBelowThresholdStaysClosed(t *testing.T) {
	cb := New(DefaultConfig())

	err := cb.Execute(context.Background(), func() error { return errBoom })

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, 1, cb.GetStats().FailureCount)
}

func TestOpenStateRejectsImmediately(t *testing.T) {
	cb := New(probeConfig())
	tripOpen(t, cb)

	called := false
	err := cb.Execute(context.Background(), func() error {
		called = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, called)
}

func TestHalfOpenClosesAfterSuccesses(t *testing.T) {
	cb := New(probeConfig())
	tripOpen(t, cb)

	time.Sleep(60 * time.Millisecond)

	ctx := context.Background()
	require.NoError(t, cb.Execute(ctx, func() error { return nil }))
	require.NoError(t, cb.Execute(ctx, func() error { return nil }))

	assert.Equal(t, StateClosed, cb.GetState())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(probeConfig())
	tripOpen(t, cb)

	time.Sleep(60 * time.Millisecond)

	err := cb.Execute(context.Background(), func() error { return errBoom })

	assert.Error(t, err)
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestExecuteWithResultPassesResult(t *testing.T) {
	cb := New(DefaultConfig())

	result, err := cb.ExecuteWithResult(context.Background(), func() (interface{}, error) {
		return "payload", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "payload", result)
}

func TestExecuteWithResultOpenState(t *testing.T) {
	cb := New(probeConfig())
	tripOpen(t, cb)

	result, err := cb.ExecuteWithResult(context.Background(), func() (interface{}, error) {
		return "payload", nil
	})

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestOnStateChangeCallback(t *testing.T) {
	cb := New(probeConfig())

	var mu sync.Mutex
	var transitions []State
	cb.OnStateChange(func(from, to State) {
		mu.Lock()
		transitions = append(transitions, to)
		mu.Unlock()
	})

	tripOpen(t, cb)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) == 1 && transitions[0] == StateOpen
	}, time.Second, 10*time.Millisecond)
}

func TestResetClosesCircuit(t *testing.T) {
	cb := New(probeConfig())
	tripOpen(t, cb)

	cb.Reset()

	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, 0, cb.GetStats().FailureCount)
}

func TestConcurrentExecution(t *testing.T) {
	cb := New(DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = cb.Execute(context.Background(), func() error { return nil })
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, 100, cb.GetStats().SuccessCount)
}
