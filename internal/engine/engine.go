// Package engine runs the per-candidate pipeline: aggregate, evaluate, charge
// the quota, save it, and maybe click.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go-goodhr-automation/internal/actuator"
	"go-goodhr-automation/internal/ai"
	"go-goodhr-automation/internal/dedup"
	"go-goodhr-automation/internal/filter"
	"go-goodhr-automation/internal/models"
	"go-goodhr-automation/internal/quota"
	"go-goodhr-automation/internal/sampling"
	"go-goodhr-automation/internal/scanner"
)

// RuleSource serves the user's current filter configuration. It is asked
// again for every candidate so edits take effect mid-session, and answers
// from one read so a position switch never splits across two versions.
// Snapshot.Rules is nil for "no position selected", which matches everyone.
type RuleSource interface {
	Snapshot(ctx context.Context, userID string) (models.RuleSnapshot, error)
}

// QuotaStore loads and saves the quota part of a user's config.
type QuotaStore interface {
	QuotaState(ctx context.Context, userID string) (*models.QuotaState, error)
	SaveQuotaState(ctx context.Context, userID string, state *models.QuotaState) error
}

// SeenCache remembers candidates greeted in earlier sessions.
type SeenCache interface {
	IsSeen(key string) bool
	Mark(keys ...string)
}

type Engine struct {
	rules   RuleSource
	quotas  QuotaStore
	tracker *quota.Tracker
	policy  *sampling.Policy
	act     actuator.Actuator
	seen    SeenCache
	screen  ai.Screener
	today   func() models.Date
}

type Option func(*Engine)

func WithPolicy(p *sampling.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithTracker(t *quota.Tracker) Option {
	return func(e *Engine) { e.tracker = t }
}

func WithSeenCache(c SeenCache) Option {
	return func(e *Engine) { e.seen = c }
}

// WithScreener makes enterprise users screened by the AI instead of by
// keyword rules. Without it every tier uses the keywords.
func WithScreener(s ai.Screener) Option {
	return func(e *Engine) { e.screen = s }
}

// WithClock overrides the calendar used for the daily reset.
func WithClock(today func() models.Date) Option {
	return func(e *Engine) { e.today = today }
}

func New(rules RuleSource, quotas QuotaStore, act actuator.Actuator, opts ...Option) *Engine {
	e := &Engine{
		rules:   rules,
		quotas:  quotas,
		tracker: quota.NewTracker(),
		act:     act,
		today:   models.Today,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.policy == nil {
		e.policy = sampling.New(nil)
	}
	if e.act == nil {
		e.act = actuator.Noop{}
	}
	return e
}

// load reads the rules fresh; nothing is cached between candidates.
func (e *Engine) load(ctx context.Context, userID string) (models.RuleSnapshot, error) {
	snap, err := e.rules.Snapshot(ctx, userID)
	if err != nil {
		return snap, classifyRuleErr(err)
	}
	return snap, nil
}

func classifyRuleErr(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, models.ErrRuleSetNotFound), errors.Is(err, models.ErrUserNotFound):
		return &ConfigError{Reason: StopNoRules, Err: err}
	case errors.Is(err, models.ErrMalformed):
		return &ConfigError{Reason: StopInvalidConfig, Err: err}
	}
	return fmt.Errorf("load rules: %w", err)
}

// Start loads the quota, applies today's reset and checks the allowance
// before any candidate is scanned.
func (e *Engine) Start(ctx context.Context, userID string) (State, error) {
	st := State{UserID: userID}

	q, err := e.quotas.QuotaState(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) || errors.Is(err, models.ErrMalformed) {
			return st, &ConfigError{Reason: StopInvalidQuota, Err: err}
		}
		return st, fmt.Errorf("load quota: %w", err)
	}

	q, changed, err := e.tracker.Refresh(q, e.today())
	if err != nil {
		return st, &ConfigError{Reason: StopInvalidQuota, Err: err}
	}
	st.Quota = q
	st.PendingPersist = changed

	exhausted, err := e.tracker.Exhausted(q, q.Version, e.today())
	if err != nil {
		return st, &ConfigError{Reason: StopInvalidQuota, Err: err}
	}
	if exhausted {
		st.Stop = exhaustionReason(q.Version)
	}

	if snap, err := e.rules.Snapshot(ctx, userID); err == nil {
		st.Position = snap.Position
	}
	return st, nil
}

// Flush saves a pending quota change.
func (e *Engine) Flush(ctx context.Context, st *State) error {
	if !st.PendingPersist {
		return nil
	}
	if err := e.quotas.SaveQuotaState(ctx, st.UserID, st.Quota); err != nil {
		return &PersistenceError{UserID: st.UserID, Err: err}
	}
	st.PendingPersist = false
	return nil
}

// Step processes one candidate.
//
// A quota change that could not be saved earlier is retried first; if that
// still fails, Step returns a PersistenceError without consuming the item so
// the caller can retry the same candidate. A failed save of this candidate's
// own greeting is reported in Outcome.PersistErr and does not stop the step.
func (e *Engine) Step(ctx context.Context, st State, item scanner.Item) (State, Outcome, error) {
	out := Outcome{Candidate: item.Record}
	if err := ctx.Err(); err != nil {
		return st, out, err
	}
	if st.Quota == nil {
		return st, out, &ConfigError{Reason: StopInvalidQuota, Err: quota.ErrInvalidState}
	}
	if err := e.Flush(ctx, &st); err != nil {
		return st, out, err
	}

	snap, err := e.load(ctx, st.UserID)
	if err != nil {
		return st, out, err
	}
	st.Position = snap.Position
	screening := e.screens(st.Quota)
	if screening && (snap.Rules == nil || snap.Rules.Description == "") {
		return st, out, &ConfigError{Reason: StopNoDescription, Err: fmt.Errorf("position %q has no job description", snap.Position)}
	}
	if snap.MaxGreet > 0 && st.Greeted >= snap.MaxGreet {
		st.Stop = StopGreetLimit
		return st, out, nil
	}

	st.Scanned++
	out.Key = dedup.Key(item.Key, item.Record)
	if e.seen != nil && e.seen.IsSeen(out.Key) {
		st.Skipped++
		out.Skipped = true
		return st, out, nil
	}

	if screening {
		if st, err = e.screenCandidate(ctx, st, &out, snap.Rules.Description); err != nil {
			return st, out, err
		}
		if !out.Matched {
			if err := e.Flush(ctx, &st); err != nil {
				log.Printf("⚠️ %v (will retry before the next candidate)", err)
				out.PersistErr = err
			}
			return st, out, nil
		}
	} else {
		out.Verdict = filter.Explain(filter.Aggregate(item.Record), snap.Rules)
		if !out.Verdict.Matched {
			return st, out, nil
		}
		out.Matched = true
		st.Matched++

		next, allowed, err := e.tracker.RecordAttempt(st.Quota, st.Quota.Version, e.today())
		if err != nil {
			return st, out, &ConfigError{Reason: StopInvalidQuota, Err: err}
		}
		st.Quota = next
		st.PendingPersist = true
		if !allowed {
			st.Stop = exhaustionReason(next.Version)
			return st, out, nil
		}
	}

	out.Allowed = true
	st.Greeted++
	if err := e.Flush(ctx, &st); err != nil {
		log.Printf("⚠️ %v (will retry before the next candidate)", err)
		out.PersistErr = err
	}
	if e.seen != nil {
		e.seen.Mark(out.Key)
	}

	if item.Target != nil && e.policy.ShouldClick(snap.Click) {
		if err := e.act.MoveAndClick(ctx, item.Target.X, item.Target.Y); err != nil {
			if ctx.Err() != nil {
				return st, out, ctx.Err()
			}
			log.Printf("⚠️ Click on %s failed: %v", item.Record.Name, err)
			out.ActuatorErr = err
		} else {
			out.Clicked = true
			out.Dwell = e.policy.ViewDuration(snap.Click)
			st.Clicked++
		}
	}

	if st.Stop == StopNone && snap.MaxGreet > 0 && st.Greeted >= snap.MaxGreet {
		st.Stop = StopGreetLimit
	}
	return st, out, nil
}

// screens reports whether this quota's candidates go to the AI screener.
func (e *Engine) screens(q *models.QuotaState) bool {
	return e.screen != nil && q.Version == models.TierEnterprise
}

// screenCandidate asks the AI about out.Candidate and pays for the answer
// from the enterprise balance. A "yes" is recorded as a greeting before the
// charge so the last unit of balance can still greet. A failed request is
// logged and costs nothing; the candidate is simply not greeted.
func (e *Engine) screenCandidate(ctx context.Context, st State, out *Outcome, description string) (State, error) {
	today := e.today()
	exhausted, err := e.tracker.Exhausted(st.Quota, models.TierEnterprise, today)
	if err != nil {
		return st, &ConfigError{Reason: StopInvalidQuota, Err: err}
	}
	if exhausted {
		st.Stop = StopEnterpriseExhausted
		return st, nil
	}

	verdict, err := e.screen.Screen(ctx, filter.Text(out.Candidate), description)
	if err != nil {
		if ctx.Err() != nil {
			return st, ctx.Err()
		}
		log.Printf("⚠️ AI screening of %s failed: %v", out.Candidate.Name, err)
		out.ScreenErr = err
		return st, nil
	}
	out.Screened = true
	out.Tokens = verdict.TotalTokens
	out.Verdict = filter.Verdict{Matched: verdict.Greet}

	q := st.Quota
	if verdict.Greet {
		var allowed bool
		if q, allowed, err = e.tracker.RecordAttempt(q, models.TierEnterprise, today); err != nil {
			return st, &ConfigError{Reason: StopInvalidQuota, Err: err}
		}
		if !allowed {
			st.Stop = StopEnterpriseExhausted
			return st, nil
		}
	}
	q, charged, err := e.tracker.ChargeAnalysis(q, today, verdict.TotalTokens)
	if err != nil {
		return st, &ConfigError{Reason: StopInvalidQuota, Err: err}
	}
	if !charged {
		st.Stop = StopEnterpriseExhausted
		return st, nil
	}
	st.Quota = q
	st.PendingPersist = true
	log.Printf("🤖 AI says %q for %s (%d tokens, %d analyses left)",
		verdict.Answer, out.Candidate.Name, verdict.TotalTokens, q.Active().RemainingQuota)

	if verdict.Greet {
		out.Matched = true
		st.Matched++
	}
	if q.Active().RemainingQuota <= 0 {
		st.Stop = StopEnterpriseExhausted
	}
	return st, nil
}

func exhaustionReason(tier models.Tier) StopReason {
	if tier == models.TierEnterprise {
		return StopEnterpriseExhausted
	}
	return StopFreeExhausted
}
