package breaker_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/libraworks/library-api/pkg/breaker"
)

func TestBreaker_Call(t *testing.T) {
	t.Parallel()

	ok := func() error { return nil }
	fail := func() error { return errors.New("smtp down") }

	t.Run("stays closed on successes", func(t *testing.T) {
		t.Parallel()
		b := breaker.New(10, time.Second, 0.5, 2)
		for i := 0; i < 50; i++ {
			require.NoError(t, b.Call(ok))
		}
	})

	t.Run("trips after threshold and fails fast", func(t *testing.T) {
		t.Parallel()
		b := breaker.New(10, time.Minute, 0.5, 2)
		for i := 0; i < 5; i++ {
			require.Error(t, b.Call(fail))
		}
		require.ErrorIs(t, b.Call(ok), breaker.ErrOpen)
	})

	t.Run("recovers after cooldown", func(t *testing.T) {
		t.Parallel()
		b := breaker.New(4, 10*time.Millisecond, 0.5, 1)
		for i := 0; i < 2; i++ {
			require.Error(t, b.Call(fail))
		}
		require.ErrorIs(t, b.Call(ok), breaker.ErrOpen)

		time.Sleep(20 * time.Millisecond)
		require.NoError(t, b.Call(ok))
		require.NoError(t, b.Call(ok))
		require.NoError(t, b.Call(ok))
	})

	t.Run("reset closes immediately", func(t *testing.T) {
		t.Parallel()
		b := breaker.New(4, time.Minute, 0.5, 1)
		for i := 0; i < 2; i++ {
			require.Error(t, b.Call(fail))
		}
		require.ErrorIs(t, b.Call(ok), breaker.ErrOpen)

		b.Reset()
		require.NoError(t, b.Call(ok))
	})
}
