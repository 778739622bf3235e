package engine

import (
	"time"

	"go-goodhr-automation/internal/filter"
	"go-goodhr-automation/internal/models"
)

// State is everything a session carries from one candidate to the next.
// Step takes it by value and returns the successor.
type State struct {
	UserID   string
	Position string
	Quota    *models.QuotaState

	Scanned int
	Skipped int
	Matched int
	Greeted int
	Clicked int

	// PendingPersist is set while Quota holds changes not yet saved.
	PendingPersist bool
	Stop           StopReason
}

// Outcome is what happened to one candidate.
type Outcome struct {
	Candidate models.CandidateRecord
	Key       string
	Verdict   filter.Verdict

	// Skipped candidates were greeted in an earlier session.
	Skipped bool
	Matched bool
	// Allowed means the quota let the greeting through.
	Allowed bool
	Clicked bool
	Dwell   time.Duration

	// Screened is set when the AI answered for this candidate; Tokens is
	// what that answer cost.
	Screened bool
	Tokens   int

	ActuatorErr error
	PersistErr  error
	ScreenErr   error
}

// Summary is reported when a session ends.
type Summary struct {
	UserID    string
	Position  string
	Reason    StopReason
	Tier      models.Tier
	Remaining int

	Scanned int
	Skipped int
	Matched int
	Greeted int
	Clicked int

	StartedAt time.Time
	Duration  time.Duration
}

func summarize(st State, started time.Time) Summary {
	s := Summary{
		UserID:    st.UserID,
		Position:  st.Position,
		Reason:    st.Stop,
		Scanned:   st.Scanned,
		Skipped:   st.Skipped,
		Matched:   st.Matched,
		Greeted:   st.Greeted,
		Clicked:   st.Clicked,
		StartedAt: started,
		Duration:  time.Since(started),
	}
	if st.Quota != nil {
		s.Tier = st.Quota.Version
		if vq := st.Quota.Active(); vq != nil {
			s.Remaining = vq.RemainingQuota
		}
	}
	return s
}
