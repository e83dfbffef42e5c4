package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errFlaky = errors.New("flaky")

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Op: "test", Attempts: 3}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Op: "test", Attempts: 2}, func(context.Context) error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 2, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	p := Policy{Op: "test", Attempts: 5, Retryable: func(err error) bool { return errors.Is(err, errFlaky) }}
	err := Do(context.Background(), p, func(context.Context) error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Op: "test", Attempts: 5, Backoff: func(int) time.Duration { return time.Hour }}
	err := Do(ctx, p, func(context.Context) error {
		cancel()
		return errFlaky
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExponential(t *testing.T) {
	b := Exponential(10*time.Millisecond, 50*time.Millisecond, 0)
	assert.Equal(t, 10*time.Millisecond, b(0))
	assert.Equal(t, 20*time.Millisecond, b(1))
	assert.Equal(t, 40*time.Millisecond, b(2))
	assert.Equal(t, 50*time.Millisecond, b(3))

	j := Exponential(100*time.Millisecond, 0, 0.2)
	for i := 0; i < 20; i++ {
		d := j(0)
		assert.GreaterOrEqual(t, d, 80*time.Millisecond)
		assert.LessOrEqual(t, d, 120*time.Millisecond)
	}
}
