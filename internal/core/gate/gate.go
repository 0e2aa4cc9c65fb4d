// Package gate provides the process-wide admission controller that paces
// outbound calls to rate-limited public endpoints. Every collector asks the
// shared controller for a turn before issuing a request; the controller
// enforces a minimum spacing between grants, minute/hour/day sliding-window
// caps, and an adaptive penalty interval that widens on downstream throttle
// signals (HTTP 429) and decays back to the configured base once the
// downstream service calms down.
package gate

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

// Severity classifies how hard the downstream service pushed back.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

const (
	decayFactor   = 0.7
	decaySnap     = 500 * time.Millisecond
	warnThreshold = 0.8
	warnSpacing   = time.Minute
	cooldownFloor = time.Minute
)

type severityProfile struct {
	multiplier float64
	cooldown   time.Duration
}

var severityProfiles = map[Severity]severityProfile{
	SeverityLow:    {multiplier: 1.3, cooldown: 12 * time.Second},
	SeverityMedium: {multiplier: 1.6, cooldown: 25 * time.Second},
	SeverityHigh:   {multiplier: 2.2, cooldown: 45 * time.Second},
}

// Config fixes the controller limits at construction time.
type Config struct {
	BaseInterval     time.Duration
	MaxInterval      time.Duration
	MaxPerMinute     int
	MaxPerHour       int // 0 = unlimited
	MaxPerDay        int // 0 = unlimited
	ThrottleCooldown time.Duration
}

// DefaultConfig returns the limits used for the shared process instance.
func DefaultConfig() Config {
	return Config{
		BaseInterval:     5 * time.Second,
		MaxInterval:      45 * time.Second,
		MaxPerMinute:     8,
		MaxPerHour:       60,
		MaxPerDay:        400,
		ThrottleCooldown: 420 * time.Second,
	}
}

func (c Config) normalized() Config {
	if c.BaseInterval <= 0 {
		c.BaseInterval = DefaultConfig().BaseInterval
	}
	if c.MaxInterval < c.BaseInterval {
		c.MaxInterval = c.BaseInterval
	}
	if c.MaxPerMinute <= 0 {
		c.MaxPerMinute = DefaultConfig().MaxPerMinute
	}
	if c.MaxPerHour < 0 {
		c.MaxPerHour = 0
	}
	if c.MaxPerDay < 0 {
		c.MaxPerDay = 0
	}
	if c.ThrottleCooldown < cooldownFloor {
		c.ThrottleCooldown = cooldownFloor
	}
	return c
}

// CapacityError reports an exhausted hour or day window. The minute window
// never produces this error; it is waited out instead.
type CapacityError struct {
	Window  string
	ResetIn time.Duration
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s request capacity exhausted, resets in %d minute(s)", e.Window, e.ResetMinutes())
}

// ResetMinutes returns the whole minutes until the window frees up, rounded up.
func (e *CapacityError) ResetMinutes() int {
	if e.ResetIn <= 0 {
		return 0
	}
	return int(math.Ceil(e.ResetIn.Minutes()))
}

// WindowStats reports usage against an optional capacity (0 = unlimited).
type WindowStats struct {
	Usage    int `json:"usage"`
	Capacity int `json:"capacity"`
}

// Stats is a point-in-time snapshot of controller state.
type Stats struct {
	Minute            WindowStats    `json:"minute"`
	Hour              WindowStats    `json:"hour"`
	Day               WindowStats    `json:"day"`
	MinInterval       time.Duration  `json:"min_interval"`
	BaseInterval      time.Duration  `json:"base_interval"`
	CooldownRemaining time.Duration  `json:"cooldown_remaining"`
	SinceLastRequest  *time.Duration `json:"since_last_request,omitempty"`
}

// Controller is the process-wide admission gate. A single mutex guards all
// state and is deliberately held across the wait inside AwaitTurn, fully
// serializing admission decisions: while one caller is sleeping out its
// wait, no other caller can compute window state or receive a grant. This
// keeps minInterval enforcement exact and makes window bookkeeping a
// single-writer problem. Do not narrow the critical section.
type Controller struct {
	// Clock is injectable for tests; defaults to time.Now().UTC().
	Clock func() time.Time
	// Sleep is injectable for tests; defaults to a timer that honors ctx.
	Sleep func(ctx context.Context, d time.Duration) error

	logger *logging.Logger

	mu            sync.Mutex
	cfg           Config
	minInterval   time.Duration
	lastRequest   time.Time
	throttleUntil time.Time
	lastThrottle  time.Time
	minute        slidingWindow
	hour          slidingWindow
	day           slidingWindow
	warnedAt      map[string]time.Time
}

// New constructs a controller with the provided limits. The logger may be nil.
func New(cfg Config, logger *logging.Logger) *Controller {
	cfg = cfg.normalized()
	return &Controller{
		logger:      logger,
		cfg:         cfg,
		minInterval: cfg.BaseInterval,
		minute:      slidingWindow{label: "minute", span: time.Minute, capacity: cfg.MaxPerMinute, waitable: true},
		hour:        slidingWindow{label: "hour", span: time.Hour, capacity: cfg.MaxPerHour},
		day:         slidingWindow{label: "day", span: 24 * time.Hour, capacity: cfg.MaxPerDay},
		warnedAt:    make(map[string]time.Time),
	}
}

// AwaitTurn blocks until the next downstream request may be issued, then
// records the grant. It fails fast with *CapacityError when the hour or day
// cap is exhausted, and returns the context error if the caller gives up
// while waiting; no partial grant is recorded in either case.
func (c *Controller) AwaitTurn(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		now := c.now()
		c.decay(now)

		var wait time.Duration
		for _, w := range []*slidingWindow{&c.minute, &c.hour, &c.day} {
			w.evict(now)
			if w.capacity <= 0 {
				continue
			}
			if w.exhausted() {
				resetIn := nonNegative(w.resetAt().Sub(now))
				if !w.waitable {
					return &CapacityError{Window: w.label, ResetIn: resetIn}
				}
				if resetIn > wait {
					wait = resetIn
				}
				continue
			}
			c.warnNearCapacity(w, now)
		}

		if c.throttleUntil.After(now) {
			if d := c.throttleUntil.Sub(now); d > wait {
				wait = d
			}
		}
		if !c.lastRequest.IsZero() {
			if d := c.minInterval - now.Sub(c.lastRequest); d > wait {
				wait = d
			}
		}

		if wait <= 0 {
			grant := c.now()
			c.lastRequest = grant
			c.minute.add(grant)
			c.hour.add(grant)
			c.day.add(grant)
			return nil
		}

		// Lock intentionally held while sleeping; see type comment.
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// RegisterThrottleEvent widens the enforced spacing after a downstream
// throttle signal. Unrecognized severities are treated as medium. The
// returned penalty is how long callers should expect the gate to stay
// closed; it is also applied to throttleUntil, which only moves forward.
func (c *Controller) RegisterThrottleEvent(severity Severity) time.Duration {
	profile, ok := severityProfiles[severity]
	if !ok {
		severity = SeverityMedium
		profile = severityProfiles[SeverityMedium]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.minInterval = clampDuration(
		scaleDuration(c.minInterval, profile.multiplier),
		c.cfg.BaseInterval,
		c.cfg.MaxInterval,
	)
	c.lastThrottle = now

	penalty := clampDuration(
		scaleDuration(c.minInterval, profile.multiplier),
		profile.cooldown,
		2*c.cfg.MaxInterval,
	)
	if until := now.Add(penalty); until.After(c.throttleUntil) {
		c.throttleUntil = until
	}

	if c.logger != nil {
		c.logger.Warn("Throttle event applied",
			zap.String("severity", string(severity)),
			zap.Duration("min_interval", c.minInterval),
			zap.Duration("penalty", penalty))
	}

	return penalty
}

// Reset clears all windows and timers back to the base-interval baseline.
// Used between unrelated runs and in tests; the instance stays live.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.minute.clear()
	c.hour.clear()
	c.day.clear()
	c.lastRequest = time.Time{}
	c.throttleUntil = time.Time{}
	c.lastThrottle = time.Time{}
	c.minInterval = c.cfg.BaseInterval
	c.warnedAt = make(map[string]time.Time)
}

// Stats returns a snapshot of current usage. Stale window entries are
// evicted first; no timers are touched.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.minute.evict(now)
	c.hour.evict(now)
	c.day.evict(now)

	stats := Stats{
		Minute:            WindowStats{Usage: c.minute.usage(), Capacity: c.minute.capacity},
		Hour:              WindowStats{Usage: c.hour.usage(), Capacity: c.hour.capacity},
		Day:               WindowStats{Usage: c.day.usage(), Capacity: c.day.capacity},
		MinInterval:       c.minInterval,
		BaseInterval:      c.cfg.BaseInterval,
		CooldownRemaining: nonNegative(c.throttleUntil.Sub(now)),
	}
	if !c.lastRequest.IsZero() {
		since := nonNegative(now.Sub(c.lastRequest))
		stats.SinceLastRequest = &since
	}
	return stats
}

// Config returns the construction-time limits.
func (c *Controller) Config() Config {
	return c.cfg
}

// decay relaxes minInterval back toward the base once the throttle cooldown
// has elapsed without further events. Runs under the controller lock.
func (c *Controller) decay(now time.Time) {
	if c.minInterval <= c.cfg.BaseInterval {
		return
	}
	if c.lastThrottle.IsZero() || now.Sub(c.lastThrottle) < c.cfg.ThrottleCooldown {
		return
	}

	next := scaleDuration(c.minInterval, decayFactor)
	if next < c.cfg.BaseInterval || next-c.cfg.BaseInterval <= decaySnap {
		next = c.cfg.BaseInterval
	}
	c.minInterval = next

	if c.minInterval == c.cfg.BaseInterval {
		// One final short cooldown before returning to baseline cadence.
		if until := now.Add(c.cfg.BaseInterval); until.After(c.throttleUntil) {
			c.throttleUntil = until
		}
		if c.logger != nil {
			c.logger.Info("Throttle decay complete",
				zap.Duration("min_interval", c.minInterval))
		}
	}
}

// warnNearCapacity emits a usage warning once the window crosses the warn
// threshold, suppressing repeats for the same window within warnSpacing.
func (c *Controller) warnNearCapacity(w *slidingWindow, now time.Time) {
	usage := w.usage()
	if float64(usage)/float64(w.capacity) < warnThreshold {
		return
	}
	if last, ok := c.warnedAt[w.label]; ok && now.Sub(last) < warnSpacing {
		return
	}
	c.warnedAt[w.label] = now

	if c.logger != nil {
		c.logger.Warn("Request window near capacity",
			zap.String("window", w.label),
			zap.Int("usage", usage),
			zap.Int("capacity", w.capacity))
	}
}

func (c *Controller) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func scaleDuration(d time.Duration, factor float64) time.Duration {
	return time.Duration(float64(d) * factor)
}

func clampDuration(d, low, high time.Duration) time.Duration {
	if d < low {
		return low
	}
	if d > high {
		return high
	}
	return d
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
