package models

import (
	"encoding/json"
	"fmt"
)

// Tier is the subscription level that decides the quota policy.
type Tier string

const (
	TierFree       Tier = "free"
	TierDonation   Tier = "donation"
	TierEnterprise Tier = "enterprise"
)

// FreeDailyQuota is what the free tier gets back every calendar day.
const FreeDailyQuota = 100

// FreeExpiry is the expiry label the free tier has always carried.
const FreeExpiry = "永久有效"

func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierDonation, TierEnterprise:
		return true
	}
	return false
}

// VersionQuota holds the counters of one tier.
type VersionQuota struct {
	GreetCount     int    `json:"greetCount"`
	RemainingQuota int    `json:"remainingQuota"`
	ExpiryDate     string `json:"expiryDate"`
	LastResetDate  Date   `json:"lastResetDate"`
	// TokensUsed adds up what the AI screener spent on this tier.
	TokensUsed int `json:"tokens_used,omitempty"`
}

// QuotaState is every tier's counters plus the tier currently in use.
type QuotaState struct {
	Version  Tier                   `json:"version"`
	Versions map[Tier]*VersionQuota `json:"versions"`
}

// Clone deep-copies the state so callers can mutate the copy freely.
func (s *QuotaState) Clone() *QuotaState {
	if s == nil {
		return nil
	}
	out := &QuotaState{Version: s.Version}
	if s.Versions != nil {
		out.Versions = make(map[Tier]*VersionQuota, len(s.Versions))
		for tier, vq := range s.Versions {
			if vq == nil {
				out.Versions[tier] = nil
				continue
			}
			cp := *vq
			out.Versions[tier] = &cp
		}
	}
	return out
}

// Active returns the counters of the tier in use, or nil.
func (s *QuotaState) Active() *VersionQuota {
	if s == nil || s.Versions == nil {
		return nil
	}
	return s.Versions[s.Version]
}

func (s *QuotaState) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: quota state is missing", ErrMalformed)
	}
	if !s.Version.Valid() {
		return fmt.Errorf("%w: unknown version %q", ErrMalformed, s.Version)
	}
	if s.Versions == nil {
		return fmt.Errorf("%w: versions are missing", ErrMalformed)
	}
	for tier, vq := range s.Versions {
		if !tier.Valid() {
			return fmt.Errorf("%w: unknown version %q in versions", ErrMalformed, tier)
		}
		if vq == nil {
			return fmt.Errorf("%w: versions.%s is null", ErrMalformed, tier)
		}
		if vq.GreetCount < 0 || vq.RemainingQuota < 0 || vq.TokensUsed < 0 {
			return fmt.Errorf("%w: versions.%s has negative counters", ErrMalformed, tier)
		}
	}
	return nil
}

// DefaultQuotaState is what a brand new user starts with.
func DefaultQuotaState(today Date) *QuotaState {
	return &QuotaState{
		Version: TierFree,
		Versions: map[Tier]*VersionQuota{
			TierFree: {
				RemainingQuota: FreeDailyQuota,
				ExpiryDate:     FreeExpiry,
				LastResetDate:  today,
			},
			TierDonation:   {LastResetDate: today},
			TierEnterprise: {LastResetDate: today},
		},
	}
}

// KeywordsData maps a position name to its rules. The PHP side writes an
// empty list instead of an empty object, so both decode to an empty map.
type KeywordsData map[string]KeywordRuleSet

func (k *KeywordsData) UnmarshalJSON(data []byte) error {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) != 0 {
			return fmt.Errorf("%w: keywordsData must be an object", ErrMalformed)
		}
		*k = KeywordsData{}
		return nil
	}
	var m map[string]KeywordRuleSet
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: keywordsData: %v", ErrMalformed, err)
	}
	*k = m
	return nil
}

// UserConfig is the per-user flat file kept by the config service.
type UserConfig struct {
	Username          string                 `json:"username"`
	Version           Tier                   `json:"version"`
	Platform          string                 `json:"platform"`
	JobsData          json.RawMessage        `json:"jobsData,omitempty"`
	KeywordsData      KeywordsData           `json:"keywordsData"`
	SelectedJob       string                 `json:"selectedJob"`
	LegacySelectedJob string                 `json:"selected_job,omitempty"`
	ClickCandidate    *ClickPolicyConfig     `json:"clickCandidate,omitempty"`
	MaxGreetCount     int                    `json:"max_greet_count,omitempty"`
	Versions          map[Tier]*VersionQuota `json:"versions"`
	CreatedAt         string                 `json:"created_at,omitempty"`
	UpdatedAt         string                 `json:"updated_at,omitempty"`
}

// Position is the selected job, falling back to the older snake_case key.
func (u *UserConfig) Position() string {
	if u.SelectedJob != "" {
		return u.SelectedJob
	}
	return u.LegacySelectedJob
}

// RuleSnapshot resolves the rules of position. An empty position yields nil
// rules, which match everyone; a named position without rules is
// ErrRuleSetNotFound. A missing click policy falls back to the default.
func (u *UserConfig) RuleSnapshot(position string) (RuleSnapshot, error) {
	snap := RuleSnapshot{
		Position: position,
		Click:    DefaultClickPolicy(),
		MaxGreet: u.MaxGreetCount,
	}
	if u.ClickCandidate != nil {
		snap.Click = *u.ClickCandidate
	}
	if position == "" {
		return snap, nil
	}
	rs, ok := u.KeywordsData[position]
	if !ok {
		return snap, fmt.Errorf("%w: %q", ErrRuleSetNotFound, position)
	}
	snap.Rules = &rs
	return snap, nil
}

// QuotaState extracts a copy of the quota part of the config.
func (u *UserConfig) QuotaState() *QuotaState {
	return (&QuotaState{Version: u.Version, Versions: u.Versions}).Clone()
}

// SetQuotaState writes the quota part back.
func (u *UserConfig) SetQuotaState(s *QuotaState) {
	cp := s.Clone()
	u.Version = cp.Version
	u.Versions = cp.Versions
}

// Validate checks everything the engine reads from the file.
func (u *UserConfig) Validate() error {
	if u.Version == "" {
		u.Version = TierFree
	}
	if err := u.QuotaState().Validate(); err != nil {
		return err
	}
	if u.ClickCandidate != nil {
		if err := u.ClickCandidate.Validate(); err != nil {
			return err
		}
	}
	if u.MaxGreetCount < 0 {
		return fmt.Errorf("%w: max_greet_count must not be negative", ErrMalformed)
	}
	return nil
}
