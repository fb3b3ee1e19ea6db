package photo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"idcard-backend/internal/photo"
)

func TestRetryWithBackoff(t *testing.T) {
	callCount := 0
	err := photo.RetryWithBackoff(context.Background(), []time.Duration{time.Millisecond, time.Millisecond}, 3, func() error {
		callCount++
		if callCount < 3 {
			return assert.AnError
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	err := photo.RetryWithBackoff(context.Background(), []time.Duration{time.Millisecond}, 3, func() error {
		return assert.AnError
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed after 3 retries")
}

func TestRetryWithBackoff_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	callCount := 0
	err := photo.RetryWithBackoff(ctx, []time.Duration{time.Hour, time.Hour}, 3, func() error {
		callCount++
		return assert.AnError
	})

	assert.Error(t, err)
	assert.Equal(t, 1, callCount)
	assert.Contains(t, err.Error(), "gave up after 1 attempts")
}
