package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWindowEviction(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := slidingWindow{label: "minute", span: time.Minute, capacity: 3}

	w.add(base)
	w.add(base.Add(30 * time.Second))
	w.add(base.Add(59 * time.Second))

	w.evict(base.Add(59 * time.Second))
	require.Equal(t, 3, w.usage())
	require.True(t, w.exhausted())

	// The first entry ages out exactly one span after it was recorded.
	w.evict(base.Add(time.Minute))
	require.Equal(t, 2, w.usage())
	require.False(t, w.exhausted())

	w.evict(base.Add(2 * time.Hour))
	require.Zero(t, w.usage())
}

func TestWindowResetAt(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := slidingWindow{label: "hour", span: time.Hour, capacity: 1}

	require.True(t, w.resetAt().IsZero())

	w.add(base)
	require.Equal(t, base.Add(time.Hour), w.resetAt())
}

func TestWindowClockRegression(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := slidingWindow{label: "minute", span: time.Minute, capacity: 5}

	w.add(base)

	// A clock step backward must not panic or drop live entries.
	w.evict(base.Add(-10 * time.Second))
	require.Equal(t, 1, w.usage())
}
