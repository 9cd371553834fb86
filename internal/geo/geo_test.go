package geo

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lox/carisekolah/internal/models"
)

func TestDistanceKm(t *testing.T) {
	if d := DistanceKm(1.8741, 102.7954, 1.8741, 102.7954); d != 0 {
		t.Errorf("same point = %v, want 0", d)
	}

	// Kuala Lumpur to George Town: 294.4 km great-circle.
	d := DistanceKm(3.139, 101.6869, 5.4141, 100.3288)
	if math.Abs(d-294.4) > 1 {
		t.Errorf("KL to George Town = %.1f km, want ~294.4", d)
	}

	if back := DistanceKm(5.4141, 100.3288, 3.139, 101.6869); math.Abs(back-d) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", d, back)
	}
}

func TestFormatDistanceKm(t *testing.T) {
	tests := []struct {
		km   float64
		want string
	}{
		{0, "0 m"},
		{0.45, "450 m"},
		{0.9996, "1000 m"},
		{1, "1.0 km"},
		{2.34, "2.3 km"},
		{287.04, "287.0 km"},
	}
	for _, tt := range tests {
		if got := FormatDistanceKm(tt.km); got != tt.want {
			t.Errorf("FormatDistanceKm(%v) = %q, want %q", tt.km, got, tt.want)
		}
	}
}

func TestNear(t *testing.T) {
	schools := []models.School{
		{KodSekolah: "FAR", Lat: models.Float(5.4141), Lng: models.Float(100.3288)},
		{KodSekolah: "NOGEO"},
		{KodSekolah: "HALF", Lat: models.Float(3.14)},
		{KodSekolah: "NEAR2", Lat: models.Float(3.15), Lng: models.Float(101.70)},
		{KodSekolah: "NEAR1", Lat: models.Float(3.14), Lng: models.Float(101.69)},
	}

	got := Near(schools, 3.139, 101.6869, 10)
	var codes []string
	for _, n := range got {
		codes = append(codes, n.School.KodSekolah)
	}
	if diff := cmp.Diff([]string{"NEAR1", "NEAR2"}, codes); diff != "" {
		t.Errorf("Near() mismatch (-want +got):\n%s", diff)
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceKm < got[i-1].DistanceKm {
			t.Errorf("results not sorted by distance at %d", i)
		}
	}

	if all := Near(schools, 3.139, 101.6869, 500); len(all) != 3 {
		t.Errorf("500 km radius returned %d schools, want 3", len(all))
	}
}
