// Package reporter delivers session events to the log and to Telegram.
package reporter

import (
	"context"
	"errors"
	"log"
	"time"

	"go-goodhr-automation/internal/engine"
)

// LogReporter writes events to the standard logger.
type LogReporter struct{}

func (LogReporter) ReportMatch(ctx context.Context, out engine.Outcome) error {
	log.Printf("📨 Greeted %s (hits: %v, clicked: %t, dwell: %v)",
		out.Candidate.Name, out.Verdict.Hits, out.Clicked, out.Dwell)
	return nil
}

func (LogReporter) ReportStop(ctx context.Context, sum engine.Summary) error {
	log.Printf("📊 %s: scanned %d, skipped %d, matched %d, greeted %d, clicked %d, %s quota left %d, took %v",
		sum.Reason, sum.Scanned, sum.Skipped, sum.Matched, sum.Greeted, sum.Clicked, sum.Tier, sum.Remaining, sum.Duration.Round(time.Second))
	return nil
}

func (LogReporter) ReportError(ctx context.Context, err error) error {
	log.Printf("❌ %v", err)
	return nil
}

// Multi fans every event out to all reporters and joins their errors.
type Multi []engine.Reporter

func (m Multi) ReportMatch(ctx context.Context, out engine.Outcome) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.ReportMatch(ctx, out))
	}
	return errors.Join(errs...)
}

func (m Multi) ReportStop(ctx context.Context, sum engine.Summary) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.ReportStop(ctx, sum))
	}
	return errors.Join(errs...)
}

func (m Multi) ReportError(ctx context.Context, err error) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.ReportError(ctx, err))
	}
	return errors.Join(errs...)
}
