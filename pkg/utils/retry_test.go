package utils_test

import (
	"errors"
	"testing"
	"time"

	"github.com/deshiwear/storefront/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	cfg := utils.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Multiplier:   2,
	}

	t.Run("succeeds on first attempt", func(t *testing.T) {
		calls := 0
		err := utils.Retry(cfg, func() error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := utils.Retry(cfg, func() error {
			calls++
			if calls < 3 {
				return errors.New("temporary")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := utils.Retry(cfg, func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, calls)
	})

	t.Run("no-retry errors return immediately", func(t *testing.T) {
		fatal := errors.New("fatal")
		calls := 0
		err := utils.Retry(cfg, func() error {
			calls++
			return fatal
		}, fatal)
		assert.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, calls)
	})
}
