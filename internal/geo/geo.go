package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/lox/carisekolah/internal/models"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points using the
// haversine formula.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// FormatDistanceKm renders distances under 1 km in whole metres and the rest
// with one decimal place, e.g. "450 m" or "2.3 km".
func FormatDistanceKm(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f km", km)
}

// Nearby pairs a school with its distance from the query origin.
type Nearby struct {
	School     models.School
	DistanceKm float64
}

// Near returns schools with coordinates within radiusKm of the origin,
// closest first. Schools at equal distance keep their input order.
func Near(schools []models.School, lat, lng, radiusKm float64) []Nearby {
	var out []Nearby
	for _, s := range schools {
		if !s.HasCoordinates() {
			continue
		}
		d := DistanceKm(lat, lng, s.Lat.Float64, s.Lng.Float64)
		if d <= radiusKm {
			out = append(out, Nearby{School: s, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}
