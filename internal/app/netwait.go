package app

import (
	"context"
	"time"

	"github.com/harborlabs/dockscale/pkg/log"
)

// waitForNetwork blocks until the store endpoint answers a probe or the
// context is canceled. Nothing is sampled or published before the first
// successful probe.
func (a *Agent) waitForNetwork(ctx context.Context) error {
	if a.net == nil {
		return nil
	}

	attempt := 0
	for {
		if a.net.Connected(ctx) {
			if attempt > 0 {
				a.logger.Info("network reachable",
					log.Int("attempts", attempt+1),
				)
			}
			return nil
		}
		attempt++
		a.logger.Warn("waiting for network",
			log.Int("attempt", attempt),
			log.Duration("retry_in", a.config.NetCheckInterval),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.config.NetCheckInterval):
		}
	}
}
