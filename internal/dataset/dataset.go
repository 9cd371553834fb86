package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/lox/carisekolah/internal/models"
)

// Dataset is the in-memory school list. It is built once and never mutated,
// so all methods are safe for concurrent use.
type Dataset struct {
	schools  []models.School
	byKod    map[string]int
	loadedAt time.Time

	negeri []string
	ppd    []string
	jenis  []string
	lokasi []string
}

// Load reads the JSON array written by ingestion.
func Load(path string) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var schools []models.School
	if err := json.Unmarshal(b, &schools); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	return New(schools), nil
}

// New builds a Dataset over schools. The slice is retained and must not be
// modified afterwards.
func New(schools []models.School) *Dataset {
	d := &Dataset{
		schools:  schools,
		byKod:    make(map[string]int, len(schools)),
		loadedAt: time.Now(),
	}
	for i := range schools {
		key := normalizeKod(schools[i].KodSekolah)
		if key == "" {
			continue
		}
		if _, dup := d.byKod[key]; !dup {
			d.byKod[key] = i
		}
	}
	d.negeri = unique(schools, func(s *models.School) string { return s.Negeri })
	d.ppd = unique(schools, func(s *models.School) string { return s.PPD })
	d.jenis = unique(schools, func(s *models.School) string { return s.Jenis })
	d.lokasi = unique(schools, func(s *models.School) string { return s.Lokasi })
	return d
}

func normalizeKod(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func unique(schools []models.School, field func(*models.School) string) []string {
	seen := make(map[string]struct{})
	for i := range schools {
		if v := strings.TrimSpace(field(&schools[i])); v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// All returns every school in ingestion order. Callers must not modify it.
func (d *Dataset) All() []models.School {
	return d.schools
}

func (d *Dataset) Len() int {
	return len(d.schools)
}

// LoadedAt is when the dataset was built.
func (d *Dataset) LoadedAt() time.Time {
	return d.loadedAt
}

// ByKod looks up a school by code, ignoring case and surrounding whitespace.
func (d *Dataset) ByKod(code string) (models.School, bool) {
	key := normalizeKod(code)
	if key == "" {
		return models.School{}, false
	}
	i, ok := d.byKod[key]
	if !ok {
		return models.School{}, false
	}
	return d.schools[i], true
}

// UniqueNegeri returns the distinct states, sorted.
func (d *Dataset) UniqueNegeri() []string { return d.negeri }

// UniquePPD returns the distinct district education offices, sorted.
func (d *Dataset) UniquePPD() []string { return d.ppd }

// UniqueJenis returns the distinct school type codes, sorted.
func (d *Dataset) UniqueJenis() []string { return d.jenis }

// UniqueLokasi returns the distinct locality classes, sorted.
func (d *Dataset) UniqueLokasi() []string { return d.lokasi }
