package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"go-goodhr-automation/internal/sampling"
	"go-goodhr-automation/internal/scanner"
)

// Reporter receives session events. Errors from a reporter are logged and
// never stop the session.
type Reporter interface {
	ReportMatch(ctx context.Context, out Outcome) error
	ReportStop(ctx context.Context, sum Summary) error
	ReportError(ctx context.Context, err error) error
}

type nopReporter struct{}

func (nopReporter) ReportMatch(context.Context, Outcome) error { return nil }
func (nopReporter) ReportStop(context.Context, Summary) error  { return nil }
func (nopReporter) ReportError(context.Context, error) error   { return nil }

// Session runs one user's pass over a candidate feed.
type Session struct {
	engine   *Engine
	userID   string
	reporter Reporter
	stats    *Stats

	// PersistRetries is how often a failed quota save is retried before the
	// session gives up.
	PersistRetries int
	PersistBackoff time.Duration
}

func NewSession(e *Engine, userID string, reporter Reporter, stats *Stats) *Session {
	if reporter == nil {
		reporter = nopReporter{}
	}
	if stats == nil {
		stats = NewStats()
	}
	return &Session{
		engine:         e,
		userID:         userID,
		reporter:       reporter,
		stats:          stats,
		PersistRetries: 3,
		PersistBackoff: 2 * time.Second,
	}
}

func (s *Session) Stats() *Stats { return s.stats }

// Run scans the feed until it ends, the quota or the session cap runs out,
// the configuration turns out unusable, or ctx is cancelled. Normal stops
// return a nil error; Summary.Reason always says why the run ended.
func (s *Session) Run(ctx context.Context, feed scanner.Feed) (Summary, error) {
	started := time.Now()
	log.Printf("🚀 Session started for %s", s.userID)

	st, runErr := s.engine.Start(ctx, s.userID)
	if runErr != nil {
		st.Stop = stopReasonFor(runErr)
	}
	s.stats.begin(st, started)

	for runErr == nil && st.Stop == StopNone {
		item, err := feed.Next(ctx)
		if err != nil {
			st.Stop, runErr = feedStop(ctx, err)
			break
		}

		var out Outcome
		st, out, err = s.step(ctx, st, item)
		if err != nil {
			st.Stop = stopReasonFor(err)
			runErr = err
			break
		}
		s.stats.record(st, out, time.Now())
		s.handle(ctx, out)

		if out.Dwell > 0 && st.Stop == StopNone {
			if err := sampling.Pause(ctx, out.Dwell); err != nil {
				st.Stop, runErr = StopCancelled, err
			}
		}
	}

	//quota changes must reach the store even when the run was cancelled
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.engine.Flush(flushCtx, &st); err != nil {
		log.Printf("❌ %v", err)
		runErr = errors.Join(runErr, err)
		if st.Stop == StopNone {
			st.Stop = StopPersistFailed
		}
	}

	sum := summarize(st, started)
	s.stats.finish(st, runErr, time.Now())
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		if err := s.reporter.ReportError(flushCtx, runErr); err != nil {
			log.Printf("⚠️ Failed to report error: %v", err)
		}
	}
	if err := s.reporter.ReportStop(flushCtx, sum); err != nil {
		log.Printf("⚠️ Failed to report stop: %v", err)
	}
	log.Printf("🏁 Session for %s stopped: %s (scanned %d, matched %d, greeted %d, clicked %d)",
		s.userID, sum.Reason, sum.Scanned, sum.Matched, sum.Greeted, sum.Clicked)
	return sum, runErr
}

// step retries the same candidate while an earlier quota change cannot be saved.
func (s *Session) step(ctx context.Context, st State, item scanner.Item) (State, Outcome, error) {
	for attempt := 0; ; attempt++ {
		next, out, err := s.engine.Step(ctx, st, item)
		if err == nil || !IsPersistenceError(err) || attempt >= s.PersistRetries {
			return next, out, err
		}
		log.Printf("⚠️ %v, retrying in %v", err, s.PersistBackoff)
		if err := sampling.Pause(ctx, s.PersistBackoff); err != nil {
			return next, out, err
		}
		st = next
	}
}

func (s *Session) handle(ctx context.Context, out Outcome) {
	switch {
	case out.Skipped:
		log.Printf("⏭️ %s was greeted before, skipping", out.Candidate.Name)
	case !out.Matched:
		switch {
		case out.Verdict.Vetoed != "":
			log.Printf("🚫 %s excluded by %q", out.Candidate.Name, out.Verdict.Vetoed)
		case out.Screened:
			log.Printf("🚫 %s not a fit according to the AI", out.Candidate.Name)
		}
	case out.Allowed:
		log.Printf("✅ Matched %s %v (clicked: %t)", out.Candidate.Name, out.Verdict.Hits, out.Clicked)
		if err := s.reporter.ReportMatch(ctx, out); err != nil {
			log.Printf("⚠️ Failed to report match: %v", err)
		}
	}
}

func feedStop(ctx context.Context, err error) (StopReason, error) {
	switch {
	case errors.Is(err, io.EOF):
		return StopFeedDone, nil
	case ctx.Err() != nil:
		return StopCancelled, ctx.Err()
	}
	return StopFeedError, fmt.Errorf("next candidate: %w", err)
}

func stopReasonFor(err error) StopReason {
	var ce *ConfigError
	switch {
	case errors.As(err, &ce):
		return ce.Reason
	case IsPersistenceError(err):
		return StopPersistFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StopCancelled
	}
	return StopInvalidConfig
}
