package search

import (
	"sort"
	"strings"

	"github.com/lox/carisekolah/internal/models"
)

// Relevance weights. Scores are additive; only their order matters.
const (
	scoreName         = 100
	scoreNameBoundary = 50
	scoreCode         = 80
	scoreTown         = 20
	scoreAddress      = 15
	scoreState        = 10
	scoreDistrict     = 10
	scoreWordPrefix   = 30
)

// Options selects schools. Empty fields do not filter.
type Options struct {
	Query  string
	Negeri string
	PPD    string
	Jenis  string
	Lokasi string
	Poskod string
}

// Normalize lowercases q, trims it and collapses internal whitespace.
func Normalize(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// Matches reports whether q (already normalized) occurs in the school's name,
// code, address, town, state or district. An empty q matches everything.
func Matches(s *models.School, q string) bool {
	if q == "" {
		return true
	}
	for _, f := range []string{s.NamaSekolah, s.KodSekolah, s.Alamat, s.Bandar, s.Negeri, s.PPD} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Score is the relevance of s to the normalized query q.
func Score(s *models.School, q string) int {
	if q == "" {
		return 0
	}
	score := strictScore(s, q)
	if strings.Contains(strings.ToLower(s.Negeri), q) {
		score += scoreState
	}
	if strings.Contains(strings.ToLower(s.PPD), q) {
		score += scoreDistrict
	}
	return score
}

// strictScore counts only name, code, town and address hits.
func strictScore(s *models.School, q string) int {
	score := 0
	name := strings.ToLower(s.NamaSekolah)
	if strings.Contains(name, q) {
		score += scoreName
		if atWordBoundary(name, q) {
			score += scoreNameBoundary
		}
	}
	if strings.Contains(strings.ToLower(s.KodSekolah), q) {
		score += scoreCode
	}
	if strings.Contains(strings.ToLower(s.Bandar), q) {
		score += scoreTown
	}
	if strings.Contains(strings.ToLower(s.Alamat), q) {
		score += scoreAddress
	}
	return score
}

// atWordBoundary reports whether some occurrence of q in name starts the name
// or touches a space on either side.
func atWordBoundary(name, q string) bool {
	for off := 0; off <= len(name)-len(q); {
		i := strings.Index(name[off:], q)
		if i < 0 {
			return false
		}
		start := off + i
		end := start + len(q)
		if start == 0 || name[start-1] == ' ' || (end < len(name) && name[end] == ' ') {
			return true
		}
		off = start + 1
	}
	return false
}

func equalTrimmed(field, want string) bool {
	return strings.TrimSpace(field) == want
}

// Filter returns the schools matching every set option, in input order.
// Categorical options are exact matches after trimming.
func Filter(schools []models.School, opts Options) []models.School {
	q := Normalize(opts.Query)
	negeri := strings.TrimSpace(opts.Negeri)
	ppd := strings.TrimSpace(opts.PPD)
	jenis := strings.TrimSpace(opts.Jenis)
	lokasi := strings.TrimSpace(opts.Lokasi)
	poskod := strings.TrimSpace(opts.Poskod)

	out := make([]models.School, 0)
	for i := range schools {
		s := &schools[i]
		if !Matches(s, q) {
			continue
		}
		if negeri != "" && !equalTrimmed(s.Negeri, negeri) {
			continue
		}
		if ppd != "" && !equalTrimmed(s.PPD, ppd) {
			continue
		}
		if jenis != "" && !equalTrimmed(s.Jenis, jenis) {
			continue
		}
		if lokasi != "" && !equalTrimmed(s.Lokasi, lokasi) {
			continue
		}
		if poskod != "" && !equalTrimmed(s.Poskod, poskod) {
			continue
		}
		out = append(out, *s)
	}
	return out
}

// Search filters schools and, when a query is given, orders the result by
// descending relevance. Equal scores keep input order.
func Search(schools []models.School, opts Options) []models.School {
	out := Filter(schools, opts)
	q := Normalize(opts.Query)
	if q == "" {
		return out
	}
	Rank(out, q)
	return out
}

type scored struct {
	school models.School
	score  int
}

// Rank sorts schools in place by descending Score against q.
func Rank(schools []models.School, q string) {
	ranked := make([]scored, len(schools))
	for i := range schools {
		ranked[i] = scored{school: schools[i], score: Score(&schools[i], q)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	for i := range ranked {
		schools[i] = ranked[i].school
	}
}
