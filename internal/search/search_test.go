package search

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lox/carisekolah/internal/models"
)

func testSchools() []models.School {
	return []models.School{
		{KodSekolah: "JBA0001", NamaSekolah: "SK TAMAN SRI", Negeri: "JOHOR", PPD: "PPD JOHOR BAHRU", Bandar: "JOHOR BAHRU", Alamat: "JALAN TAMAN", Jenis: "SK", Lokasi: "Bandar", Poskod: "81000"},
		{KodSekolah: "JBA0002", NamaSekolah: "SK SRITAMAN", Negeri: "JOHOR", PPD: "PPD JOHOR BAHRU", Bandar: "SKUDAI", Jenis: "SK", Lokasi: "Luar Bandar", Poskod: "81300"},
		{KodSekolah: "KDX001", NamaSekolah: "SMK ALOR", Negeri: "KEDAH", PPD: "PPD KOTA SETAR", Bandar: "TAMAN JAYA", Jenis: "SMK", Lokasi: "Bandar"},
		{KodSekolah: "ABC1234", NamaSekolah: "SJKC CHUNG HWA", Negeri: " PERAK ", PPD: "PPD TAMAN PERAK", Jenis: "SJKC", Lokasi: "Bandar"},
	}
}

func codes(schools []models.School) []string {
	out := make([]string, len(schools))
	for i, s := range schools {
		out[i] = s.KodSekolah
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  SK   Taman\tSri ", "sk taman sri"},
		{"JBA0001", "jba0001"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAtWordBoundary(t *testing.T) {
	tests := []struct {
		name, q string
		want    bool
	}{
		{"sk taman", "taman", true},
		{"taman sri", "taman", true},
		{"sritaman jaya", "taman", true},
		{"sritamanjaya", "taman", false},
		{"sritaman", "taman", false},
		{"tamantaman", "man", false},
		{"a man", "man", true},
	}
	for _, tt := range tests {
		if got := atWordBoundary(tt.name, tt.q); got != tt.want {
			t.Errorf("atWordBoundary(%q, %q) = %v, want %v", tt.name, tt.q, got, tt.want)
		}
	}
}

func TestScore(t *testing.T) {
	schools := testSchools()
	tests := []struct {
		idx  int
		q    string
		want int
	}{
		{0, "taman", 100 + 50 + 15},
		{1, "taman", 100},
		{2, "taman", 20},
		{3, "taman", 10},
		{0, "jba0001", 80},
		{0, "johor", 20 + 10 + 10},
		{2, "kedah", 10},
		{0, "zzz", 0},
		{0, "", 0},
	}
	for _, tt := range tests {
		if got := Score(&schools[tt.idx], tt.q); got != tt.want {
			t.Errorf("Score(%s, %q) = %d, want %d", schools[tt.idx].KodSekolah, tt.q, got, tt.want)
		}
	}
}

func TestFilter(t *testing.T) {
	schools := testSchools()
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"no options", Options{}, []string{"JBA0001", "JBA0002", "KDX001", "ABC1234"}},
		{"query keeps input order", Options{Query: "  TAMAN "}, []string{"JBA0001", "JBA0002", "KDX001", "ABC1234"}},
		{"query matches state", Options{Query: "kedah"}, []string{"KDX001"}},
		{"state", Options{Negeri: "JOHOR"}, []string{"JBA0001", "JBA0002"}},
		{"state trimmed both sides", Options{Negeri: " PERAK"}, []string{"ABC1234"}},
		{"state and locality", Options{Negeri: "JOHOR", Lokasi: "Bandar"}, []string{"JBA0001"}},
		{"district", Options{PPD: "PPD KOTA SETAR"}, []string{"KDX001"}},
		{"type", Options{Jenis: "SK"}, []string{"JBA0001", "JBA0002"}},
		{"postcode", Options{Poskod: "81300"}, []string{"JBA0002"}},
		{"exact match only", Options{Negeri: "JOH"}, []string{}},
		{"unknown state", Options{Negeri: "NONEXISTENT_STATE"}, []string{}},
		{"query and filter", Options{Query: "taman", Jenis: "SMK"}, []string{"KDX001"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, codes(Filter(schools, tt.opts))); diff != "" {
				t.Errorf("Filter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilter_StateInvariant(t *testing.T) {
	for _, s := range Filter(testSchools(), Options{Negeri: "JOHOR"}) {
		if s.Negeri != "JOHOR" {
			t.Errorf("%s has negeri %q", s.KodSekolah, s.Negeri)
		}
	}
}

func TestSearch_RanksByRelevance(t *testing.T) {
	schools := testSchools()
	got := codes(Search(schools, Options{Query: "taman"}))
	want := []string{"JBA0001", "JBA0002", "KDX001", "ABC1234"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search mismatch (-want +got):\n%s", diff)
	}

	got = codes(Search(schools, Options{Query: "johor"}))
	want = []string{"JBA0001", "JBA0002"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search mismatch (-want +got):\n%s", diff)
	}

	if schools[0].KodSekolah != "JBA0001" || schools[3].KodSekolah != "ABC1234" {
		t.Error("Search reordered its input")
	}
}

func TestRank_StableOnTies(t *testing.T) {
	schools := []models.School{
		{KodSekolah: "A", Negeri: "SELANGOR"},
		{KodSekolah: "B", NamaSekolah: "SK SELANGOR"},
		{KodSekolah: "C", Negeri: "SELANGOR"},
	}
	Rank(schools, "selangor")
	if diff := cmp.Diff([]string{"B", "A", "C"}, codes(schools)); diff != "" {
		t.Errorf("Rank mismatch (-want +got):\n%s", diff)
	}
}
