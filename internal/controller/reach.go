package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dzmitry-papkou/engagement/internal/bridge"
)

// attempt is one rung of the reachability ladder.
type attempt struct {
	inject bool
	wait   time.Duration
}

// ladder probes first, injects once before the first retry, and waits the
// given delay before each retry.
func ladder(retryDelays []time.Duration) []attempt {
	steps := []attempt{{}}
	for i, d := range retryDelays {
		steps = append(steps, attempt{inject: i == 0, wait: d})
	}
	return steps
}

// EnsureReachable walks the ladder until a probe is answered. An injection
// failure stops the walk.
func (c *Controller) EnsureReachable(ctx context.Context, client *bridge.Client, injector Injector) error {
	for i, step := range ladder(c.cfg.RetryDelays) {
		if step.inject && injector != nil {
			if err := injector.Inject(ctx); err != nil {
				log.Debug().Err(err).Msg("injection failed")
				return fmt.Errorf("%w: %v", ErrUnreachable, err)
			}
		}
		if step.wait > 0 {
			if err := c.sleep(ctx, step.wait); err != nil {
				return fmt.Errorf("%w: %v", ErrUnreachable, err)
			}
		}
		if client.Ping(ctx, c.cfg.ProbeTimeout) {
			log.Debug().Int("attempt", i+1).Msg("page reachable")
			return nil
		}
	}
	return ErrUnreachable
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
