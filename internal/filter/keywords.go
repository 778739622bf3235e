package filter

import (
	"strings"

	"go-goodhr-automation/internal/models"

	mapset "github.com/deckarep/golang-set/v2"
)

// Verdict is the outcome of one rule evaluation along with why.
type Verdict struct {
	Matched bool
	// NoRules is set when the position has no rule set at all (match-all).
	NoRules bool
	// Vetoed is the exclude keyword that rejected the candidate.
	Vetoed string
	Hits   []string
	Misses []string
}

// Evaluate reports whether aggregated candidate text satisfies the rule set.
func Evaluate(text string, rs *models.KeywordRuleSet) bool {
	return Explain(text, rs).Matched
}

// Explain evaluates the rules and records which keywords hit.
//
// Matching is plain substring containment on lowercased text, so a short
// keyword also matches inside a longer word. Blank keywords are ignored.
// Any exclude hit vetoes the candidate whatever the relation is.
func Explain(text string, rs *models.KeywordRuleSet) Verdict {
	if rs == nil {
		return Verdict{Matched: true, NoRules: true}
	}
	text = lower(text)

	for _, kw := range CleanKeywords(rs.Exclude) {
		if strings.Contains(text, kw) {
			return Verdict{Vetoed: kw}
		}
	}

	include := CleanKeywords(rs.Include)
	if len(include) == 0 {
		return Verdict{Matched: true}
	}

	var v Verdict
	for _, kw := range include {
		if strings.Contains(text, kw) {
			v.Hits = append(v.Hits, kw)
		} else {
			v.Misses = append(v.Misses, kw)
		}
	}

	if rs.Relation == models.RelationAll {
		v.Matched = len(v.Misses) == 0
	} else {
		v.Matched = len(v.Hits) > 0
	}
	return v
}

// CleanKeywords lowercases keywords, drops blank ones and duplicates, and
// keeps the configured order.
func CleanKeywords(keywords []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		kw = lower(kw)
		if !seen.Add(kw) {
			continue
		}
		out = append(out, kw)
	}
	return out
}
