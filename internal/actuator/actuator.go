// Package actuator performs the simulated click that opens a candidate.
package actuator

import (
	"context"
	"log"
)

// Actuator moves the pointer to screen coordinates and clicks there.
type Actuator interface {
	MoveAndClick(ctx context.Context, x, y int) error
}

// Noop is used when clicking is switched off for the whole run.
type Noop struct{}

func (Noop) MoveAndClick(ctx context.Context, x, y int) error {
	log.Printf("🖱️ [dry-run] would click at (%d, %d)", x, y)
	return ctx.Err()
}
