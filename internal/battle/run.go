package battle

import (
	"context"
	"time"
)

// Run starts the battle and ticks it every interval until it ends or ctx is
// cancelled.
func (b *Battle) Run(ctx context.Context, interval time.Duration) (*Result, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.Start(time.Now())
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case now := <-ticker.C:
			if b.Update(now) {
				return b.result, nil
			}
		}
	}
}

// RunSteps drives the battle without a clock, advancing a virtual time by
// step on each tick. It gives up after maxSteps ticks and returns false.
// Headless simulations use it with clients that answer synchronously.
func (b *Battle) RunSteps(start time.Time, step time.Duration, maxSteps int) (*Result, bool) {
	now := start
	b.Start(now)
	for i := 0; i < maxSteps; i++ {
		now = now.Add(step)
		if b.Update(now) {
			return b.result, true
		}
	}
	return nil, false
}
