package collector

import (
	"net/http"
	"time"

	"github.com/kwradar/kwradar/internal/core/gate"
)

func retryAfterHeader(resp *http.Response) time.Duration {
	if resp == nil || resp.Header == nil {
		return 0
	}

	retry := resp.Header.Get("Retry-After")
	if retry == "" {
		return 0
	}

	if seconds, err := time.ParseDuration(retry + "s"); err == nil {
		return seconds
	}
	if parsed, err := http.ParseTime(retry); err == nil {
		return time.Until(parsed)
	}

	return 0
}

// throttleSeverity maps a 429 response to a throttle severity. Each endpoint
// carries a base severity; a long Retry-After escalates it.
func throttleSeverity(base gate.Severity, retryAfter time.Duration) gate.Severity {
	if retryAfter >= time.Minute {
		return gate.SeverityHigh
	}
	return base
}
