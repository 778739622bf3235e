package engine

import (
	"sync"
	"time"

	"go-goodhr-automation/internal/models"
)

const lastMatchesKept = 20

// MatchInfo is one greeted candidate as shown on the panel.
type MatchInfo struct {
	Name    string    `json:"name"`
	Hits    []string  `json:"hits,omitempty"`
	Clicked bool      `json:"clicked"`
	At      time.Time `json:"at"`
}

// Snapshot is a copy of the live session counters.
type Snapshot struct {
	UserID     string               `json:"userId"`
	Position   string               `json:"position"`
	Running    bool                 `json:"running"`
	StartedAt  time.Time            `json:"startedAt"`
	FinishedAt time.Time            `json:"finishedAt,omitempty"`
	Scanned    int                  `json:"scanned"`
	Skipped    int                  `json:"skipped"`
	Matched    int                  `json:"matched"`
	Greeted    int                  `json:"greeted"`
	Clicked    int                  `json:"clicked"`
	StopReason StopReason           `json:"stopReason,omitempty"`
	Tier       models.Tier          `json:"tier,omitempty"`
	Quota      *models.VersionQuota `json:"quota,omitempty"`
	LastError  string               `json:"lastError,omitempty"`
	Matches    []MatchInfo          `json:"lastMatches"`
}

// Stats is shared between the running session and the control panel.
type Stats struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	out.Matches = append([]MatchInfo(nil), s.snap.Matches...)
	if s.snap.Quota != nil {
		q := *s.snap.Quota
		out.Quota = &q
	}
	return out
}

func (s *Stats) begin(st State, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{UserID: st.UserID, Position: st.Position, Running: true, StartedAt: at}
	s.setState(st)
}

func (s *Stats) record(st State, out Outcome, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setState(st)
	if out.Allowed {
		s.snap.Matches = append(s.snap.Matches, MatchInfo{
			Name:    out.Candidate.Name,
			Hits:    out.Verdict.Hits,
			Clicked: out.Clicked,
			At:      at,
		})
		if n := len(s.snap.Matches); n > lastMatchesKept {
			s.snap.Matches = s.snap.Matches[n-lastMatchesKept:]
		}
	}
}

func (s *Stats) finish(st State, err error, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setState(st)
	s.snap.Running = false
	s.snap.FinishedAt = at
	if err != nil {
		s.snap.LastError = err.Error()
	}
}

// setState copies counters; caller holds the lock.
func (s *Stats) setState(st State) {
	s.snap.Position = st.Position
	s.snap.Scanned = st.Scanned
	s.snap.Skipped = st.Skipped
	s.snap.Matched = st.Matched
	s.snap.Greeted = st.Greeted
	s.snap.Clicked = st.Clicked
	s.snap.StopReason = st.Stop
	if st.Quota != nil {
		s.snap.Tier = st.Quota.Version
		if vq := st.Quota.Active(); vq != nil {
			q := *vq
			s.snap.Quota = &q
		}
	}
}
