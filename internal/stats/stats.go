package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/lox/carisekolah/internal/models"
)

const (
	// PackedPTRThreshold is the pupil-teacher ratio at or above which a
	// school counts as packed.
	PackedPTRThreshold = 20.0
	// IdealClassSize is the class size used for minimum class and teacher
	// estimates.
	IdealClassSize = 30
)

// SchoolPTR is enrolment divided by teachers. It is absent unless both are
// present and teachers is positive.
func SchoolPTR(s *models.School) models.NullFloat {
	if !s.Enrolmen.Valid || !s.Guru.Valid || s.Guru.Float64 <= 0 {
		return models.NullFloat{}
	}
	return models.Float(s.Enrolmen.Float64 / s.Guru.Float64)
}

// GroupPTR is the summed enrolment over the summed teacher count of the
// schools for which keep returns true. Only schools reporting both numbers
// contribute. It is absent when the teacher sum is not positive.
func GroupPTR(schools []models.School, keep func(*models.School) bool) models.NullFloat {
	var enrolment, teachers float64
	for i := range schools {
		s := &schools[i]
		if !s.Enrolmen.Valid || !s.Guru.Valid {
			continue
		}
		if keep != nil && !keep(s) {
			continue
		}
		enrolment += s.Enrolmen.Float64
		teachers += s.Guru.Float64
	}
	if teachers <= 0 {
		return models.NullFloat{}
	}
	return models.Float(enrolment / teachers)
}

// IsPacked reports whether the school's own ratio reaches PackedPTRThreshold.
func IsPacked(s *models.School) bool {
	ptr := SchoolPTR(s)
	return ptr.Valid && ptr.Float64 >= PackedPTRThreshold
}

// Comparison places one school against its state, its type and the country.
type Comparison struct {
	SchoolPTR   models.NullFloat `json:"schoolPtr"`
	NationalPTR models.NullFloat `json:"nationalPtr"`
	StatePTR    models.NullFloat `json:"statePtr"`
	TypePTR     models.NullFloat `json:"typePtr"`
	IsPacked    bool             `json:"isPacked"`
	// EnrolmentPercentileInState is in [0, 100], or nil when the school or
	// its state has no enrolment figure.
	EnrolmentPercentileInState *int   `json:"enrolmentPercentileInState"`
	StateEnrolmentCount        int    `json:"stateEnrolmentCount"`
	StateName                  string `json:"stateName"`
	TypeName                   string `json:"typeName"`
}

// PercentileMeaningful reports whether the state percentile compares the
// school with at least one other school.
func (c Comparison) PercentileMeaningful() bool {
	return c.EnrolmentPercentileInState != nil && c.StateEnrolmentCount > 1
}

// Compare computes the comparison of school against all.
func Compare(all []models.School, school models.School) Comparison {
	state := strings.TrimSpace(school.Negeri)
	typ := strings.TrimSpace(school.Jenis)

	c := Comparison{
		SchoolPTR:   SchoolPTR(&school),
		NationalPTR: GroupPTR(all, nil),
		IsPacked:    IsPacked(&school),
		StateName:   state,
		TypeName:    typ,
	}
	if state != "" {
		c.StatePTR = GroupPTR(all, func(s *models.School) bool {
			return strings.TrimSpace(s.Negeri) == state
		})
	}
	if typ != "" {
		c.TypePTR = GroupPTR(all, func(s *models.School) bool {
			return strings.TrimSpace(s.Jenis) == typ
		})
	}

	values := stateEnrolments(all, state)
	c.StateEnrolmentCount = len(values)
	if school.Enrolmen.Valid {
		if p, ok := Percentile(values, school.Enrolmen.Float64); ok {
			c.EnrolmentPercentileInState = &p
		}
	}
	return c
}

// stateEnrolments returns the reported enrolments in state, ascending.
func stateEnrolments(all []models.School, state string) []float64 {
	if state == "" {
		return nil
	}
	var values []float64
	for i := range all {
		s := &all[i]
		if s.Enrolmen.Valid && strings.TrimSpace(s.Negeri) == state {
			values = append(values, s.Enrolmen.Float64)
		}
	}
	sort.Float64s(values)
	return values
}

// Percentile ranks v within sorted (ascending) as the rounded share of values
// not below the first value >= v. A v above every value ranks 100. It
// reports false for an empty slice.
func Percentile(sorted []float64, v float64) (int, bool) {
	n := len(sorted)
	if n == 0 {
		return 0, false
	}
	pos := sort.SearchFloat64s(sorted, v)
	if pos == n {
		return 100, true
	}
	return int(math.Round((1 - float64(pos)/float64(n)) * 100)), true
}
