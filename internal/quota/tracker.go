// Package quota applies the per-tier greeting allowance.
package quota

import (
	"errors"
	"fmt"

	"go-goodhr-automation/internal/models"
)

// ErrInvalidState means the stored quota state does not have the required
// shape. Callers must halt instead of substituting defaults, otherwise a
// deleted or corrupted file would silently reopen the quota.
var ErrInvalidState = errors.New("invalid quota state")

// Tracker is stateless; every call works on the state it is given.
type Tracker struct {
	// FreeDailyQuota is restored on the free tier each new day.
	FreeDailyQuota int
}

func NewTracker() *Tracker {
	return &Tracker{FreeDailyQuota: models.FreeDailyQuota}
}

// RecordAttempt charges one greeting to tier on day today.
//
// It returns the updated copy of state and whether the greeting is allowed.
// Exhaustion is a normal (state, false) result; the counters are then left
// as they were apart from the daily reset stamp. The input is never mutated.
func (t *Tracker) RecordAttempt(state *models.QuotaState, tier models.Tier, today models.Date) (*models.QuotaState, bool, error) {
	if err := checkShape(state, tier); err != nil {
		return state, false, err
	}

	next := state.Clone()
	vd := next.Versions[tier]
	if vd == nil {
		vd = &models.VersionQuota{}
		next.Versions[tier] = vd
	}

	if !vd.LastResetDate.Equal(today) {
		vd.LastResetDate = today
		if tier == models.TierFree {
			vd.GreetCount = 0
			vd.RemainingQuota = t.freeQuota()
		}
	}

	switch tier {
	case models.TierFree, models.TierEnterprise:
		if vd.RemainingQuota <= 0 {
			return next, false, nil
		}
	}

	vd.GreetCount++
	if tier == models.TierFree {
		vd.RemainingQuota = max(vd.RemainingQuota-1, 0)
	}
	return next, true, nil
}

// ChargeAnalysis takes one unit of the enterprise balance for an AI
// screening and adds the tokens it spent. Whether the screener then says to
// greet does not matter: an answered request is paid for. An empty balance
// returns (state, false) and charges nothing.
//
// The greeting itself, if any, is still recorded through RecordAttempt,
// which counts it without touching the balance.
func (t *Tracker) ChargeAnalysis(state *models.QuotaState, today models.Date, tokens int) (*models.QuotaState, bool, error) {
	if err := checkShape(state, models.TierEnterprise); err != nil {
		return state, false, err
	}
	if tokens < 0 {
		return state, false, fmt.Errorf("%w: negative token count %d", ErrInvalidState, tokens)
	}

	next := state.Clone()
	vd := next.Versions[models.TierEnterprise]
	if vd == nil {
		vd = &models.VersionQuota{}
		next.Versions[models.TierEnterprise] = vd
	}
	vd.LastResetDate = today

	if vd.RemainingQuota <= 0 {
		return next, false, nil
	}
	vd.RemainingQuota--
	vd.TokensUsed += tokens
	return next, true, nil
}

// Refresh applies only the daily reset, e.g. when a session starts, so the
// panel shows today's numbers before the first match.
func (t *Tracker) Refresh(state *models.QuotaState, today models.Date) (*models.QuotaState, bool, error) {
	if state == nil {
		return nil, false, fmt.Errorf("%w: state is nil", ErrInvalidState)
	}
	if err := checkShape(state, state.Version); err != nil {
		return state, false, err
	}
	next := state.Clone()
	vd := next.Versions[next.Version]
	if vd == nil || vd.LastResetDate.Equal(today) {
		return next, false, nil
	}
	vd.LastResetDate = today
	if next.Version == models.TierFree {
		vd.GreetCount = 0
		vd.RemainingQuota = t.freeQuota()
	}
	return next, true, nil
}

// Exhausted reports whether tier cannot take another greeting today without
// charging anything.
func (t *Tracker) Exhausted(state *models.QuotaState, tier models.Tier, today models.Date) (bool, error) {
	_, allowed, err := t.RecordAttempt(state, tier, today)
	if err != nil {
		return false, err
	}
	return !allowed, nil
}

func (t *Tracker) freeQuota() int {
	if t.FreeDailyQuota > 0 {
		return t.FreeDailyQuota
	}
	return models.FreeDailyQuota
}

func checkShape(state *models.QuotaState, tier models.Tier) error {
	if state == nil {
		return fmt.Errorf("%w: state is nil", ErrInvalidState)
	}
	if state.Versions == nil {
		return fmt.Errorf("%w: versions are missing", ErrInvalidState)
	}
	if !tier.Valid() {
		return fmt.Errorf("%w: unknown tier %q", ErrInvalidState, tier)
	}
	return nil
}
