package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lox/carisekolah/internal/models"
)

func testSchools() []models.School {
	return []models.School{
		{KodSekolah: "JBA0001", NamaSekolah: "SK BATU", Negeri: "JOHOR", PPD: "PPD BATU PAHAT", Jenis: "SK", Lokasi: "Luar Bandar"},
		{KodSekolah: "KDX001", NamaSekolah: "SK ALOR", Negeri: "KEDAH", PPD: "PPD KOTA SETAR", Jenis: "SK", Lokasi: "Bandar"},
		{KodSekolah: "JEA0002", NamaSekolah: "SMK SRI", Negeri: " JOHOR ", PPD: "PPD BATU PAHAT", Jenis: "SMK", Lokasi: "  "},
		{KodSekolah: "WBA0003", NamaSekolah: "SJKC CHONG", Negeri: "", Jenis: "SJKC", Lokasi: "Bandar"},
	}
}

func TestByKod(t *testing.T) {
	d := New(testSchools())

	for _, s := range testSchools() {
		for _, code := range []string{s.KodSekolah, " " + s.KodSekolah + " ", strings.ToLower(s.KodSekolah)} {
			got, ok := d.ByKod(code)
			if !ok {
				t.Errorf("ByKod(%q) not found", code)
				continue
			}
			if got.KodSekolah != s.KodSekolah {
				t.Errorf("ByKod(%q) = %q, want %q", code, got.KodSekolah, s.KodSekolah)
			}
		}
	}

	for _, code := range []string{"", "   ", "UNKNOWN999"} {
		if _, ok := d.ByKod(code); ok {
			t.Errorf("ByKod(%q) found a school", code)
		}
	}
}

func TestUniqueValues(t *testing.T) {
	d := New(testSchools())

	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"negeri", d.UniqueNegeri(), []string{"JOHOR", "KEDAH"}},
		{"ppd", d.UniquePPD(), []string{"PPD BATU PAHAT", "PPD KOTA SETAR"}},
		{"jenis", d.UniqueJenis(), []string{"SJKC", "SK", "SMK"}},
		{"lokasi", d.UniqueLokasi(), []string{"Bandar", "Luar Bandar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("unique %s mismatch (-want +got):\n%s", tt.name, diff)
			}
			if !sort.StringsAreSorted(tt.got) {
				t.Errorf("%v is not sorted", tt.got)
			}
		})
	}
}

func TestAllKeepsOrder(t *testing.T) {
	schools := testSchools()
	d := New(schools)
	if d.Len() != len(schools) {
		t.Fatalf("Len = %d, want %d", d.Len(), len(schools))
	}
	for i, s := range d.All() {
		if s.KodSekolah != schools[i].KodSekolah {
			t.Errorf("All()[%d] = %q, want %q", i, s.KodSekolah, schools[i].KodSekolah)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schools.json")
	data := `[
  {"kodSekolah": "JBA0001", "negeri": "JOHOR", "enrolmen": 68, "guru": 20},
  {"kodSekolah": "KDX001", "negeri": "KEDAH", "enrolmen": null, "guru": "5"}
]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("Len = %d, want 2", d.Len())
	}
	kdx, ok := d.ByKod("kdx001")
	if !ok {
		t.Fatal("KDX001 not found")
	}
	if kdx.Enrolmen.Valid {
		t.Error("null enrolmen loaded as present")
	}
	if kdx.Guru != models.Float(5) {
		t.Errorf("guru = %v, want 5", kdx.Guru)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"not": "an array"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected error for non-array JSON")
	}
}
