package stats

import (
	"math"

	"github.com/lox/carisekolah/internal/models"
)

// Sizing estimates class sizes for a school against an ideal class size.
type Sizing struct {
	IdealClassSize     int              `json:"idealClassSize"`
	EstimatedClassSize models.NullFloat `json:"estimatedClassSize"`
	MinClasses         models.NullFloat `json:"minClasses"`
	MinTeachers        models.NullFloat `json:"minTeachers"`
	TeacherShortfall   models.NullFloat `json:"teacherShortfall"`
}

// IdealSizing estimates class size as pupils per teacher and the classes and
// teachers needed to keep classes at k pupils. Minimum classes and minimum
// teachers use the same formula, one teacher per class. Missing enrolment or
// teacher counts are read as zero.
func IdealSizing(s *models.School, k int) Sizing {
	if k <= 0 {
		k = IdealClassSize
	}
	enrolment := s.Enrolmen.Or(0)
	teachers := s.Guru.Or(0)

	out := Sizing{IdealClassSize: k}
	if teachers > 0 && enrolment >= 0 {
		out.EstimatedClassSize = models.Float(enrolment / teachers)
	}
	if enrolment > 0 {
		need := math.Ceil(enrolment / float64(k))
		out.MinClasses = models.Float(need)
		out.MinTeachers = models.Float(need)
		if teachers >= 0 {
			out.TeacherShortfall = models.Float(math.Max(0, need-teachers))
		}
	}
	return out
}
