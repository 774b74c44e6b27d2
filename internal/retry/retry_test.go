package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codeError struct{ code string }

func (e *codeError) Error() string { return "db error " + e.code }
func (e *codeError) Code() string  { return e.code }

// recorder replaces the real sleep and remembers every requested delay.
type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	rec := &recorder{}
	var retries []int
	p := Policy{
		IsTransient: Codes(PostgresTransient...),
		Sleep:       rec.sleep,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			retries = append(retries, attempt)
		},
	}

	calls := 0
	got, err := Do(context.Background(), p, func(ctx context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", &codeError{code: "26000"}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}, rec.delays)
}

func TestDo_NonTransientFailsImmediately(t *testing.T) {
	rec := &recorder{}
	p := Policy{IsTransient: Codes(PostgresTransient...), Sleep: rec.sleep}

	calls := 0
	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		return 0, &codeError{code: "23505"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestDo_ExhaustionReturnsLastError(t *testing.T) {
	rec := &recorder{}
	p := Policy{MaxAttempts: 3, IsTransient: Codes(PostgresTransient...), Sleep: rec.sleep}

	var errs []error
	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		e := &codeError{code: "P1017"}
		errs = append(errs, e)
		return 0, e
	})

	require.Len(t, errs, 3)
	assert.Same(t, errs[2], err)
	assert.Len(t, rec.delays, 2)
}

func TestDo_NilClassifierNeverRetries(t *testing.T) {
	calls := 0
	err := Run(context.Background(), Policy{}, func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transient := &codeError{code: "42P05"}
	calls := 0
	_, err := Do(ctx, Policy{IsTransient: Codes(PostgresTransient...)}, func(ctx context.Context) (int, error) {
		calls++
		return 0, transient
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, transient)
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{}
	assert.Equal(t, 200*time.Millisecond, p.Delay(1))
	assert.Equal(t, 400*time.Millisecond, p.Delay(2))

	p.BaseDelay = time.Millisecond
	assert.Equal(t, 8*time.Millisecond, p.Delay(3))
}

type stateError struct{ state string }

func (e stateError) Error() string    { return "pg: " + e.state }
func (e stateError) SQLState() string { return e.state }

func TestCodes(t *testing.T) {
	isTransient := Codes(PostgresTransient...)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"invalid statement name", &codeError{code: "26000"}, true},
		{"duplicate prepared statement", &codeError{code: "42P05"}, true},
		{"pool timeout", &codeError{code: "P1010"}, true},
		{"connection closed", &codeError{code: "P1017"}, true},
		{"wrapped", fmt.Errorf("query: %w", &codeError{code: "26000"}), true},
		{"sqlstate", fmt.Errorf("exec: %w", stateError{state: "42P05"}), true},
		{"unique violation", &codeError{code: "23505"}, false},
		{"no code", errors.New("plain"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}
