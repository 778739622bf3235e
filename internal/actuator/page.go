package actuator

import (
	"context"
	"fmt"

	"go-goodhr-automation/internal/browser"
	"go-goodhr-automation/internal/sampling"

	"github.com/playwright-community/playwright-go"
)

// Mouse is the part of playwright.Mouse the page actuator needs.
type Mouse interface {
	Move(x, y float64, options ...playwright.MouseMoveOptions) error
	Click(x, y float64, options ...playwright.MouseClickOptions) error
}

// PageActuator clicks inside a Playwright page instead of moving the OS pointer.
// Coordinates are page viewport coordinates.
type PageActuator struct {
	page   playwright.Page
	mouse  Mouse
	shots  *browser.ScreenshotDebugger
	jitter *sampling.Policy
}

func NewPageActuator(page playwright.Page, shots *browser.ScreenshotDebugger, jitter *sampling.Policy) *PageActuator {
	return newPageActuator(page, page.Mouse(), shots, jitter)
}

func newPageActuator(page playwright.Page, mouse Mouse, shots *browser.ScreenshotDebugger, jitter *sampling.Policy) *PageActuator {
	if jitter == nil {
		jitter = sampling.New(nil)
	}
	return &PageActuator{page: page, mouse: mouse, shots: shots, jitter: jitter}
}

// MoveAndClick glides to the target in several steps, hesitates, then clicks.
func (a *PageActuator) MoveAndClick(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	steps := 10 + a.jitter.Intn(16)
	if err := a.mouse.Move(float64(x), float64(y), playwright.MouseMoveOptions{Steps: playwright.Int(steps)}); err != nil {
		return a.fail("move", x, y, err)
	}
	if err := a.jitter.RandomDelay(ctx, 80, 250); err != nil {
		return err
	}
	if err := a.mouse.Click(float64(x), float64(y), playwright.MouseClickOptions{Delay: playwright.Float(float64(40 + a.jitter.Intn(60)))}); err != nil {
		return a.fail("click", x, y, err)
	}
	return nil
}

func (a *PageActuator) fail(op string, x, y int, err error) error {
	if a.shots != nil && a.page != nil {
		_ = a.shots.CaptureAndLog(a.page, "click_failed", fmt.Sprintf("Mouse %s failed at (%d, %d)", op, x, y))
	}
	return fmt.Errorf("mouse %s at (%d, %d): %w", op, x, y, err)
}
