// Package sampling decides which matched candidates get opened and for how long.
package sampling

import (
	"math/rand"
	"time"

	"go-goodhr-automation/internal/models"
)

const (
	defaultViewMinSeconds = 3
	defaultViewMaxSeconds = 5
)

// Source is the random source the policy draws from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Policy is not safe for concurrent use; a session owns one.
type Policy struct {
	rnd Source
}

// New uses src, or a time-seeded source when src is nil.
func New(src Source) *Policy {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Policy{rnd: src}
}

// NewSeeded gives a reproducible policy.
func NewSeeded(seed int64) *Policy {
	return New(rand.New(rand.NewSource(seed)))
}

// ShouldClick draws r in [0, 10) and clicks when r <= FrequencyPerTen, so a
// frequency of 3 opens roughly 3 out of 10 matches. Draws are independent.
func (p *Policy) ShouldClick(cfg models.ClickPolicyConfig) bool {
	if !cfg.Enabled || cfg.FrequencyPerTen <= 0 {
		return false
	}
	r := p.rnd.Float64() * 10
	return r <= float64(cfg.FrequencyPerTen)
}

// RandomViewDuration returns a whole number of seconds drawn uniformly from
// the configured range, in milliseconds. An unset range means 3-5 seconds.
func (p *Policy) RandomViewDuration(cfg models.ClickPolicyConfig) int {
	lo, hi := viewRange(cfg.ViewDuration)
	secs := lo + p.rnd.Intn(hi-lo+1)
	return secs * 1000
}

// ViewDuration is RandomViewDuration as a time.Duration.
func (p *Policy) ViewDuration(cfg models.ClickPolicyConfig) time.Duration {
	return time.Duration(p.RandomViewDuration(cfg)) * time.Millisecond
}

func viewRange(r models.DurationRange) (int, int) {
	lo, hi := max(r.Min, 0), max(r.Max, 0)
	switch {
	case lo == 0 && hi == 0:
		return defaultViewMinSeconds, defaultViewMaxSeconds
	case hi == 0:
		hi = max(lo, defaultViewMaxSeconds)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}
