// Package daemon wires the swap coordinator, its HTTP surface and the
// background refund monitor into one process.
package daemon

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/depixswap/swapd/api"
	"github.com/depixswap/swapd/swap"
)

// DefaultMonitorInterval is how often the refund monitor scans for expired
// locks.
const DefaultMonitorInterval = 10 * time.Second

// Start serves the API and runs the refund monitor until ctx is cancelled.
func Start(ctx context.Context, server *api.Server, coordinator *swap.Coordinator, interval time.Duration) error {
	log.Info("Starting swapd")

	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Fatalf("couldn't start server: %v", err)
		}
	}()

	if interval == 0 {
		interval = DefaultMonitorInterval
	}
	monitor := NewRefundMonitor(coordinator)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down swapd")

			return server.Shutdown(context.Background())
		case <-ticker.C:
			monitor.Scan(ctx)
		}
	}
}
