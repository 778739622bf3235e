package sampling

import (
	"context"
	"time"
)

// Pause waits for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RandomDelay pauses for a random time between minMs and maxMs milliseconds.
func (p *Policy) RandomDelay(ctx context.Context, minMs, maxMs int) error {
	if minMs >= maxMs {
		return Pause(ctx, time.Duration(minMs)*time.Millisecond)
	}
	ms := p.rnd.Intn(maxMs-minMs+1) + minMs
	return Pause(ctx, time.Duration(ms)*time.Millisecond)
}

// Intn exposes the policy's source for callers that need jitter.
func (p *Policy) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return p.rnd.Intn(n)
}
