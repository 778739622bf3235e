package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Relation string

const (
	RelationAll Relation = "ALL"
	RelationAny Relation = "ANY"
)

// ParseRelation accepts the current spellings plus the legacy AND/OR ones.
// An empty value means ANY.
func ParseRelation(s string) (Relation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ANY", "OR":
		return RelationAny, nil
	case "ALL", "AND":
		return RelationAll, nil
	}
	return "", fmt.Errorf("%w: unknown relation %q", ErrMalformed, s)
}

func (r *Relation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: relation must be a string", ErrMalformed)
	}
	parsed, err := ParseRelation(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// KeywordRuleSet is the filter configured for one position. Description is
// the free-text job ad the AI screener compares candidates against.
type KeywordRuleSet struct {
	Include     []string `json:"include"`
	Exclude     []string `json:"exclude"`
	Relation    Relation `json:"relation"`
	Description string   `json:"description,omitempty"`
}

// UnmarshalJSON also understands the extension's {keywords, excludeKeywords, isAndMode} shape.
func (rs *KeywordRuleSet) UnmarshalJSON(data []byte) error {
	var raw struct {
		Include         []string  `json:"include"`
		Exclude         []string  `json:"exclude"`
		Relation        *Relation `json:"relation"`
		Keywords        []string  `json:"keywords"`
		ExcludeKeywords []string  `json:"excludeKeywords"`
		IsAndMode       *bool     `json:"isAndMode"`
		Description     string    `json:"description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: keyword rule set: %v", ErrMalformed, err)
	}

	rs.Include = raw.Include
	if rs.Include == nil {
		rs.Include = raw.Keywords
	}
	rs.Exclude = raw.Exclude
	if rs.Exclude == nil {
		rs.Exclude = raw.ExcludeKeywords
	}

	rs.Description = strings.TrimSpace(raw.Description)

	rs.Relation = RelationAny
	switch {
	case raw.Relation != nil:
		rs.Relation = *raw.Relation
	case raw.IsAndMode != nil && *raw.IsAndMode:
		rs.Relation = RelationAll
	}
	return nil
}

// DurationRange is a [min, max] range in whole seconds.
type DurationRange struct {
	Min int
	Max int
}

func (d DurationRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{d.Min, d.Max})
}

func (d *DurationRange) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: viewDuration must be [min, max]", ErrMalformed)
	}
	switch len(pair) {
	case 0:
		*d = DurationRange{}
	case 2:
		*d = DurationRange{Min: pair[0], Max: pair[1]}
	default:
		return fmt.Errorf("%w: viewDuration must have 2 values, got %d", ErrMalformed, len(pair))
	}
	return nil
}

// ClickPolicyConfig controls how often a matched candidate gets opened.
type ClickPolicyConfig struct {
	Enabled         bool          `json:"enabled"`
	FrequencyPerTen int           `json:"frequency"`
	ViewDuration    DurationRange `json:"viewDuration"`
}

// DefaultClickPolicy mirrors the extension defaults: 3 out of 10 matches, 3-5s each.
func DefaultClickPolicy() ClickPolicyConfig {
	return ClickPolicyConfig{
		Enabled:         true,
		FrequencyPerTen: 3,
		ViewDuration:    DurationRange{Min: 3, Max: 5},
	}
}

func (c ClickPolicyConfig) Validate() error {
	if c.FrequencyPerTen < 0 || c.FrequencyPerTen > 10 {
		return fmt.Errorf("%w: click frequency must be within 0-10, got %d", ErrMalformed, c.FrequencyPerTen)
	}
	if c.ViewDuration.Min < 0 || c.ViewDuration.Max < 0 {
		return fmt.Errorf("%w: view duration must not be negative", ErrMalformed)
	}
	if c.ViewDuration.Max > 0 && c.ViewDuration.Min > c.ViewDuration.Max {
		return fmt.Errorf("%w: view duration min %d > max %d", ErrMalformed, c.ViewDuration.Min, c.ViewDuration.Max)
	}
	return nil
}

// RuleSnapshot is everything the engine reads from a user's config before
// evaluating one candidate, taken from a single read of the file.
type RuleSnapshot struct {
	Position string
	// Rules is nil when no position is selected.
	Rules    *KeywordRuleSet
	Click    ClickPolicyConfig
	MaxGreet int
}
