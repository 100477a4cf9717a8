package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/donis3/costcalc/internal/service"
)

var fastOpts = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     2 * time.Millisecond,
	Multiplier:   2,
}

func TestWithRetry(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		wantErr   error
		failures  []error
		name      string
		wantCalls int
	}{
		{name: "first try", wantCalls: 1},
		{name: "recovers", failures: []error{errBoom, errBoom}, wantCalls: 3},
		{name: "gives up", failures: []error{errBoom, errBoom, errBoom}, wantCalls: 3, wantErr: ErrMaxRetries},
		{
			name:      "permanent failure",
			failures:  []error{&RetryableError{Err: errBoom, Retryable: false}},
			wantCalls: 1,
			wantErr:   errBoom,
		},
		{name: "rate limited", failures: []error{ErrRateLimit}, wantCalls: 2},
		{name: "rate limited with hint", failures: []error{&RateLimitError{RetryAfter: time.Millisecond}}, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			}, fastOpts)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		cancel()
		return errors.New("transient")
	}, service.RetryOptions{MaxAttempts: 5, InitialDelay: time.Second})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestRetryableError_Unwrap(t *testing.T) {
	err := &RetryableError{Err: ErrRateSource}
	assert.ErrorIs(t, err, ErrRateSource)
	assert.Equal(t, ErrRateSource.Error(), err.Error())
}

func TestWithRetry_KeepsLastError(t *testing.T) {
	errBoom := errors.New("boom")
	err := WithRetry(context.Background(), func() error { return errBoom }, fastOpts)
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.ErrorIs(t, err, errBoom)
}

func TestNextDelay(t *testing.T) {
	opts := retryDefaults(service.RetryOptions{MaxDelay: time.Minute})
	backoff := 200 * time.Millisecond

	assert.Equal(t, backoff, nextDelay(errors.New("x"), backoff, opts))
	assert.Equal(t, time.Minute, nextDelay(ErrRateLimit, backoff, opts))
	assert.Equal(t, 5*time.Second, nextDelay(&RateLimitError{RetryAfter: 5 * time.Second}, backoff, opts))
	assert.Equal(t, time.Minute, nextDelay(&RateLimitError{RetryAfter: time.Hour}, backoff, opts))
	assert.ErrorIs(t, &RateLimitError{}, ErrRateLimit)
}
