package monitoring

import (
	"context"
	"database/sql"
	"time"

	"chatpulse/internal/core/ports"
)

// AddRegistryCheck probes the connection registry backend.
func (h *HealthChecker) AddRegistryCheck(registry ports.ConnectionRegistry, timeout time.Duration) {
	h.AddCheck("registry", func(ctx context.Context) (bool, error) {
		// A membership read on a probe entry exercises the backend.
		if _, err := registry.Members(ctx, "healthcheck_probe"); err != nil {
			return false, err
		}
		return true, nil
	}, timeout)
}

// AddPostgresCheck probes the message store.
func (h *HealthChecker) AddPostgresCheck(db *sql.DB, timeout time.Duration) {
	h.AddCheck("postgres", func(ctx context.Context) (bool, error) {
		if err := db.PingContext(ctx); err != nil {
			return false, err
		}
		return true, nil
	}, timeout)
}
