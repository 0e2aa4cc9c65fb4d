package gate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSharedReturnsSingleInstance(t *testing.T) {
	const callers = 16

	var (
		wg        sync.WaitGroup
		instances [callers]*Controller
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			instances[idx] = Shared()
		}(i)
	}
	wg.Wait()

	first := instances[0]
	require.NotNil(t, first)
	for _, instance := range instances {
		require.Same(t, first, instance)
	}
}

func TestInitSharedFirstCallerWins(t *testing.T) {
	existing := Shared()
	got := InitShared(Config{MaxPerMinute: 1}, nil)
	require.Same(t, existing, got)
}

func TestResetShared(t *testing.T) {
	c := Shared()
	c.RegisterThrottleEvent(SeverityHigh)

	ResetShared()

	stats := c.Stats()
	require.Equal(t, stats.BaseInterval, stats.MinInterval)
	require.Zero(t, stats.CooldownRemaining)
}
