package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lox/carisekolah/internal/models"
)

const (
	DefaultSuggestLimit = 12
	MaxSuggestLimit     = 20
	MinQueryLength      = 2
	MaxQueryLength      = 200
)

// Suggestions returns at most limit typeahead entries for query, best first.
// limit is capped at MaxSuggestLimit. Only name, code, town and address hits
// count, and names with a word starting with the query get a bonus. Queries
// shorter than two characters return nothing.
func Suggestions(schools []models.School, query string, limit int) []models.Suggestion {
	out := []models.Suggestion{}
	q := Normalize(query)
	if utf8.RuneCountInString(q) < MinQueryLength || limit <= 0 {
		return out
	}
	limit = min(limit, MaxSuggestLimit)

	var ranked []scored
	for i := range schools {
		s := &schools[i]
		score := strictScore(s, q)
		if score == 0 {
			continue
		}
		if hasWordPrefix(s.NamaSekolah, q) {
			score += scoreWordPrefix
		}
		ranked = append(ranked, scored{school: *s, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	for _, r := range ranked {
		if len(out) == limit {
			break
		}
		out = append(out, models.Suggestion{
			KodSekolah:  r.school.KodSekolah,
			NamaSekolah: r.school.NamaSekolah,
			Negeri:      r.school.Negeri,
		})
	}
	return out
}

func hasWordPrefix(name, q string) bool {
	for _, w := range strings.Fields(strings.ToLower(name)) {
		if strings.HasPrefix(w, q) {
			return true
		}
	}
	return false
}
