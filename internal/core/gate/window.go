package gate

import "time"

// slidingWindow tracks grant timestamps within a rolling span.
// A capacity of 0 means the window is unlimited.
type slidingWindow struct {
	label    string
	span     time.Duration
	capacity int
	waitable bool
	entries  []time.Time
}

// evict drops entries older than the window span relative to now.
// Entries are appended in grant order, so the slice stays sorted and
// eviction only trims the head.
func (w *slidingWindow) evict(now time.Time) {
	cutoff := now.Add(-w.span)
	idx := 0
	for idx < len(w.entries) && !w.entries[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		w.entries = append(w.entries[:0], w.entries[idx:]...)
	}
}

// add records a grant timestamp.
func (w *slidingWindow) add(t time.Time) {
	w.entries = append(w.entries, t)
}

// usage returns the number of live entries.
func (w *slidingWindow) usage() int {
	return len(w.entries)
}

// exhausted reports whether the window has a capacity and it is filled.
func (w *slidingWindow) exhausted() bool {
	return w.capacity > 0 && len(w.entries) >= w.capacity
}

// resetAt returns when the oldest entry leaves the window. Zero when empty.
func (w *slidingWindow) resetAt() time.Time {
	if len(w.entries) == 0 {
		return time.Time{}
	}
	return w.entries[0].Add(w.span)
}

// clear drops all entries.
func (w *slidingWindow) clear() {
	w.entries = w.entries[:0]
}
