package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnector(maxRetries int, interval time.Duration) (*Connector, *[]time.Duration) {
	slept := &[]time.Duration{}
	cfg := &config.Config{
		Bootstrap: &config.BootstrapConfig{
			MaxRetries:    maxRetries,
			RetryInterval: interval,
			Policy:        "fixed",
		},
	}

	c := NewConnector(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)

		return nil
	}

	return c, slept
}

func TestConnector_SucceedsAfterTransientFailures(t *testing.T) {
	c, slept := newTestConnector(5, 5*time.Second)

	attempts := 0
	dial := func(context.Context) error {
		attempts++
		if attempts <= 4 {
			return errors.New("connection refused")
		}

		return nil
	}

	err := c.Connect(context.Background(), "postgres", dial)
	require.NoError(t, err)
	assert.Equal(t, 5, attempts)
	// Four failures means four waits, each the fixed interval.
	require.Len(t, *slept, 4)
	for _, d := range *slept {
		assert.Equal(t, 5*time.Second, d)
	}
}

func TestConnector_ExhaustsRetryBudget(t *testing.T) {
	c, slept := newTestConnector(5, 5*time.Second)

	attempts := 0
	cause := errors.New("connection refused")
	dial := func(context.Context) error {
		attempts++

		return cause
	}

	err := c.Connect(context.Background(), "postgres", dial)
	require.Error(t, err)
	assert.Equal(t, 5, attempts)
	// No wait after the final attempt.
	assert.Len(t, *slept, 4)
	// The wrapped error carries the original cause.
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "after 5 attempts")
}

func TestConnector_FirstAttemptSucceeds(t *testing.T) {
	c, slept := newTestConnector(5, 5*time.Second)

	err := c.Connect(context.Background(), "postgres", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Empty(t, *slept)
}

func TestConnector_ContextCanceledWhileWaiting(t *testing.T) {
	cfg := &config.Config{
		Bootstrap: &config.BootstrapConfig{
			MaxRetries:    5,
			RetryInterval: time.Hour,
			Policy:        "fixed",
		},
	}
	c := NewConnector(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := c.Connect(ctx, "postgres", func(context.Context) error {
		attempts++

		return errors.New("connection refused")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFixedBackoff(t *testing.T) {
	b := Fixed{Interval: 5 * time.Second}

	for attempt := 1; attempt <= 5; attempt++ {
		assert.Equal(t, 5*time.Second, b.Next(attempt))
	}
}

func TestExponentialWithJitterBackoff(t *testing.T) {
	b := ExponentialWithJitter{
		Base: time.Second,
		Max:  8 * time.Second,
		rand: func() float64 { return 0 },
	}

	assert.Equal(t, 1*time.Second, b.Next(1))
	assert.Equal(t, 2*time.Second, b.Next(2))
	assert.Equal(t, 4*time.Second, b.Next(3))
	assert.Equal(t, 8*time.Second, b.Next(4))
	// Capped at Max from here on.
	assert.Equal(t, 8*time.Second, b.Next(10))

	// Jitter adds at most half the delay.
	jittered := ExponentialWithJitter{
		Base: time.Second,
		Max:  8 * time.Second,
		rand: func() float64 { return 0.999 },
	}
	d := jittered.Next(1)
	assert.GreaterOrEqual(t, d, time.Second)
	assert.Less(t, d, 1500*time.Millisecond+time.Millisecond)
}

func TestPolicyFromConfig(t *testing.T) {
	fixed := PolicyFromConfig(&config.BootstrapConfig{RetryInterval: 5 * time.Second, Policy: "fixed"})
	assert.IsType(t, Fixed{}, fixed)

	exp := PolicyFromConfig(&config.BootstrapConfig{RetryInterval: time.Second, Policy: "exponential"})
	assert.IsType(t, ExponentialWithJitter{}, exp)

	// Unknown policies fall back to fixed.
	unknown := PolicyFromConfig(&config.BootstrapConfig{RetryInterval: time.Second, Policy: "fibonacci"})
	assert.IsType(t, Fixed{}, unknown)
}
