package ingest

import (
	"sort"
	"strings"

	"github.com/lox/carisekolah/internal/models"
)

const (
	FlagMissingName       = "missing_name"
	FlagCoordsPartial     = "coords_partial"
	FlagCoordsOutOfRange  = "coords_out_of_range"
	FlagEnrolmentNegative = "enrolment_negative"
	FlagTeachersNegative  = "teachers_negative"
	FlagNoTeachers        = "no_teachers"
)

// Rough bounding box around Peninsular Malaysia, Sabah, Sarawak and Labuan.
const (
	minLat, maxLat = 0.5, 7.6
	minLng, maxLng = 99.5, 119.5
)

// ValidateSchool returns quality flags for a record. Flags are informational;
// flagged records are still published.
func ValidateSchool(s *models.School) []string {
	var flags []string

	if strings.TrimSpace(s.NamaSekolah) == "" {
		flags = append(flags, FlagMissingName)
	}

	if s.Lat.Valid != s.Lng.Valid {
		flags = append(flags, FlagCoordsPartial)
	} else if s.HasCoordinates() {
		if s.Lat.Float64 < minLat || s.Lat.Float64 > maxLat || s.Lng.Float64 < minLng || s.Lng.Float64 > maxLng {
			flags = append(flags, FlagCoordsOutOfRange)
		}
	}

	if s.Enrolmen.Valid && s.Enrolmen.Float64 < 0 {
		flags = append(flags, FlagEnrolmentNegative)
	}
	if s.Guru.Valid && s.Guru.Float64 < 0 {
		flags = append(flags, FlagTeachersNegative)
	}
	if s.Enrolmen.Valid && s.Enrolmen.Float64 > 0 && s.Guru.Valid && s.Guru.Float64 == 0 {
		flags = append(flags, FlagNoTeachers)
	}

	return flags
}

// FlagCount is the number of records carrying a flag.
type FlagCount struct {
	Flag  string
	Count int
}

// CountFlags tallies flags across records, most frequent first.
func CountFlags(schools []models.School) []FlagCount {
	counts := make(map[string]int)
	for i := range schools {
		for _, f := range ValidateSchool(&schools[i]) {
			counts[f]++
		}
	}
	out := make([]FlagCount, 0, len(counts))
	for f, n := range counts {
		out = append(out, FlagCount{Flag: f, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Flag < out[j].Flag
	})
	return out
}
