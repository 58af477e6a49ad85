package services

import (
	"context"
	"sync"
	"time"

	"github.com/qualitylink/qldash/internal/logger"
)

// Sweeper releases resources that have been idle for too long
type Sweeper interface {
	// Sweep removes everything idle since before the cutoff and returns how many were removed
	Sweep(cutoff time.Time) int
}

// LaunchJanitor runs a loop that periodically sweeps idle resources until ctx is done
func LaunchJanitor(ctx context.Context, wg *sync.WaitGroup, sweeper Sweeper, interval, maxIdle time.Duration) {
	defer wg.Done()

	logger.Info("Janitor started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Janitor received shutdown signal, stopping...")
			return
		case now := <-ticker.C:
			removed := sweeper.Sweep(now.Add(-maxIdle))
			if removed == 0 {
				logger.Debug("Janitor: nothing to sweep")
				continue
			}
			logger.Infof("Janitor swept %d idle sessions", removed)
		}
	}
}
