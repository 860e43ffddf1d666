package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0

	err := Retry(context.Background(), 3, time.Millisecond, nil, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}

		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0

	err := Retry(context.Background(), 5, time.Millisecond, func(err error) bool {
		return errors.Is(err, ErrSecretNotFound)
	}, func(context.Context) error {
		calls++

		return ErrSecretNotFound
	})

	require.ErrorIs(t, err, ErrSecretNotFound)
	assert.Equal(t, 1, calls)
}

func TestRetryGivesUp(t *testing.T) {
	calls := 0

	err := Retry(context.Background(), 2, time.Millisecond, nil, func(context.Context) error {
		calls++

		return errors.New("down")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Hour, nil, func(context.Context) error {
		return errors.New("down")
	})

	require.ErrorIs(t, err, context.Canceled)
}
