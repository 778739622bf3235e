package filter

import (
	"strconv"
	"strings"

	"go-goodhr-automation/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lower folds candidate text and keywords with the same caser.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Aggregate builds the single lowercase search string for a candidate.
func Aggregate(rec models.CandidateRecord) string {
	return lower(Text(rec))
}

// Text joins name, age, education, university, description, then
// "type:value" for each extra info pair with single spaces, keeping the
// original case. Absent fields are skipped.
func Text(rec models.CandidateRecord) string {
	parts := make([]string, 0, 5+len(rec.ExtraInfo))

	for _, field := range []string{rec.Name, ageText(rec.Age), rec.Education, rec.University, rec.Description} {
		if field != "" {
			parts = append(parts, field)
		}
	}
	for _, info := range rec.ExtraInfo {
		parts = append(parts, info.Type+":"+info.Value)
	}

	return strings.Join(parts, " ")
}

func ageText(age *int) string {
	if age == nil {
		return ""
	}
	return strconv.Itoa(*age)
}
