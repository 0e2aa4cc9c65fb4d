// Package collector implements the demand-signal collectors. Every collector
// shares one admission controller: it asks the gate for a turn before each
// outbound request and reports downstream throttle signals back to it, so
// the process-wide pacing holds no matter how many collectors run at once.
package collector

import (
	"context"
	"net/http"
	"time"

	"github.com/kwradar/kwradar/internal/core"
)

// Collector describes a demand signal collector.
type Collector interface {
	Collect(ctx context.Context, seed string) (*core.CollectResult, error)
	Source() core.SourceType
	SupportsSeed(seed string) bool
}

const defaultTimeout = 10 * time.Second

func httpClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultTimeout}
}
