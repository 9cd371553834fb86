package stats

import (
	"sort"
	"strings"

	"github.com/lox/carisekolah/internal/models"
)

const (
	// OtherGroup names schools with a blank state or type.
	OtherGroup = "Lain"
	// PackedListSize caps the packed school list in the overview.
	PackedListSize = 30
)

// Count is a group name and the number of schools in it.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GroupSummary aggregates the schools sharing a state or type.
type GroupSummary struct {
	Name      string           `json:"name"`
	Schools   int              `json:"schools"`
	Teachers  float64          `json:"teachers"`
	Enrolment float64          `json:"enrolment"`
	PTR       models.NullFloat `json:"ptr"`
	// MeanSchoolPTR averages the ratios of individual schools, so small
	// schools weigh as much as large ones.
	MeanSchoolPTR models.NullFloat `json:"meanSchoolPtr"`
}

// PackedSchool is a school at or above PackedPTRThreshold.
type PackedSchool struct {
	KodSekolah  string  `json:"kodSekolah"`
	NamaSekolah string  `json:"namaSekolah,omitempty"`
	Negeri      string  `json:"negeri,omitempty"`
	Jenis       string  `json:"jenis,omitempty"`
	PTR         float64 `json:"ptr"`
}

// Overview holds the dataset-wide figures.
type Overview struct {
	TotalSchools   int              `json:"totalSchools"`
	TotalTeachers  float64          `json:"totalTeachers"`
	TotalEnrolment float64          `json:"totalEnrolment"`
	NationalPTR    models.NullFloat `json:"nationalPtr"`
	UrbanCount     int              `json:"urbanCount"`
	RuralCount     int              `json:"ruralCount"`
	PreschoolCount int              `json:"preschoolCount"`

	ByNegeri []Count `json:"byNegeri"`
	ByJenis  []Count `json:"byJenis"`

	// PackedCount is every packed school; Packed lists the most crowded.
	PackedCount int            `json:"packedCount"`
	Packed      []PackedSchool `json:"packed"`

	States []GroupSummary `json:"states"`
	Types  []GroupSummary `json:"types"`
}

type groupAcc struct {
	schools             int
	teachers, enrolment float64
	pairEnrol, pairGuru float64
	ratioSum            float64
	ratioCount          int
}

func (g *groupAcc) add(s *models.School) {
	g.schools++
	g.teachers += s.Guru.Or(0)
	g.enrolment += s.Enrolmen.Or(0)
	if s.Enrolmen.Valid && s.Guru.Valid {
		g.pairEnrol += s.Enrolmen.Float64
		g.pairGuru += s.Guru.Float64
	}
	if ptr := SchoolPTR(s); ptr.Valid {
		g.ratioSum += ptr.Float64
		g.ratioCount++
	}
}

func (g *groupAcc) summary(name string) GroupSummary {
	out := GroupSummary{
		Name:      name,
		Schools:   g.schools,
		Teachers:  g.teachers,
		Enrolment: g.enrolment,
	}
	if g.pairGuru > 0 {
		out.PTR = models.Float(g.pairEnrol / g.pairGuru)
	}
	if g.ratioCount > 0 {
		out.MeanSchoolPTR = models.Float(g.ratioSum / float64(g.ratioCount))
	}
	return out
}

func groupName(v string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return OtherGroup
}

// Summarize computes the overview of all.
func Summarize(all []models.School) Overview {
	var national groupAcc
	states := make(map[string]*groupAcc)
	types := make(map[string]*groupAcc)
	var packed []PackedSchool

	ov := Overview{TotalSchools: len(all)}
	for i := range all {
		s := &all[i]
		national.add(s)
		accFor(states, groupName(s.Negeri)).add(s)
		accFor(types, groupName(s.Jenis)).add(s)

		if s.IsUrban() {
			ov.UrbanCount++
		} else if s.IsRural() {
			ov.RuralCount++
		}
		if s.HasPreschool() {
			ov.PreschoolCount++
		}
		if IsPacked(s) {
			packed = append(packed, PackedSchool{
				KodSekolah:  s.KodSekolah,
				NamaSekolah: s.DisplayName(),
				Negeri:      s.Negeri,
				Jenis:       s.Jenis,
				PTR:         SchoolPTR(s).Float64,
			})
		}
	}

	nat := national.summary("")
	ov.TotalTeachers = nat.Teachers
	ov.TotalEnrolment = nat.Enrolment
	ov.NationalPTR = nat.PTR

	ov.States = summaries(states)
	ov.Types = summaries(types)
	ov.ByNegeri = counts(ov.States)
	ov.ByJenis = counts(ov.Types)

	sort.SliceStable(packed, func(i, j int) bool { return packed[i].PTR > packed[j].PTR })
	ov.PackedCount = len(packed)
	if len(packed) > PackedListSize {
		packed = packed[:PackedListSize]
	}
	ov.Packed = packed
	if ov.Packed == nil {
		ov.Packed = []PackedSchool{}
	}
	return ov
}

func accFor(m map[string]*groupAcc, name string) *groupAcc {
	g, ok := m[name]
	if !ok {
		g = &groupAcc{}
		m[name] = g
	}
	return g
}

// summaries orders groups by school count, largest first, then by name.
func summaries(m map[string]*groupAcc) []GroupSummary {
	out := make([]GroupSummary, 0, len(m))
	for name, g := range m {
		out = append(out, g.summary(name))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Schools != out[j].Schools {
			return out[i].Schools > out[j].Schools
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func counts(groups []GroupSummary) []Count {
	out := make([]Count, len(groups))
	for i, g := range groups {
		out[i] = Count{Name: g.Name, Count: g.Schools}
	}
	return out
}
