package common

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return sql.ErrConnDone
		}
		return nil
	}, 5, time.Millisecond, nil)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryNonRetryable(t *testing.T) {
	calls := 0
	boom := errors.New("access denied")
	err := WithRetry(context.Background(), func(context.Context) error {
		calls++
		return boom
	}, 5, time.Millisecond, nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func(context.Context) error {
		return sql.ErrConnDone
	}, 3, time.Second, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
