// Package monitoring carries the gateway's operational surface:
// prometheus counters and dependency health probes.
package monitoring

import (
	"context"
	"sync"
	"time"
)

// probe answers whether one dependency is usable right now.
type probe struct {
	name    string
	check   func(ctx context.Context) (bool, error)
	timeout time.Duration
}

// HealthChecker runs registered dependency probes on demand. Probes
// run with their own timeout so one stuck dependency cannot hold the
// readiness endpoint hostage.
type HealthChecker struct {
	mu     sync.RWMutex
	probes []probe
}

// HealthStatus is the readiness endpoint's response body.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

func (h *HealthChecker) AddCheck(name string, check func(ctx context.Context) (bool, error), timeout time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes = append(h.probes, probe{name: name, check: check, timeout: timeout})
}

// CheckAll runs every probe. Any failure marks the whole status
// unhealthy; per-probe outcomes are reported individually.
func (h *HealthChecker) CheckAll(ctx context.Context) HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Checks:    make(map[string]string, len(h.probes)),
	}

	for _, p := range h.probes {
		probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
		healthy, err := p.check(probeCtx)
		cancel()

		switch {
		case err != nil:
			status.Status = "unhealthy"
			status.Checks[p.name] = err.Error()
		case !healthy:
			status.Status = "unhealthy"
			status.Checks[p.name] = "check failed"
		default:
			status.Checks[p.name] = "healthy"
		}
	}

	return status
}
