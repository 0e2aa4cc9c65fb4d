package gate

import (
	"sync"

	"github.com/fulmenhq/gofulmen/logging"
)

// The shared controller is process-wide: every collector in the process
// funnels through the same instance so the downstream caps hold regardless
// of how many goroutines are collecting. Collectors still receive the
// controller explicitly at construction; this registry only wires the
// default instance for CLI and server entry points. Tests should construct
// their own controller with New.
var (
	sharedMu sync.Mutex
	shared   *Controller
)

// Shared returns the process-wide controller, constructing it with
// DefaultConfig on first use. Safe under concurrent first calls; exactly
// one instance is ever created.
func Shared() *Controller {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = New(DefaultConfig(), nil)
	}
	return shared
}

// InitShared constructs the process-wide controller with the given limits.
// The first caller wins; later calls (and Shared) return the existing
// instance, so entry points should call this before any collection starts.
func InitShared(cfg Config, logger *logging.Logger) *Controller {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = New(cfg, logger)
	}
	return shared
}

// ResetShared resets the shared controller if one exists.
func ResetShared() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared != nil {
		shared.Reset()
	}
}
