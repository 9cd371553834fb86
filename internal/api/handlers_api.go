package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/lox/carisekolah/internal/geo"
	"github.com/lox/carisekolah/internal/metrics"
	"github.com/lox/carisekolah/internal/models"
	"github.com/lox/carisekolah/internal/ratelimit"
	"github.com/lox/carisekolah/internal/search"
	"github.com/lox/carisekolah/internal/stats"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500

	defaultRadiusKm = 10
	maxRadiusKm     = 100
)

type HealthStatus struct {
	Status   string    `json:"status"`
	Schools  int       `json:"schools"`
	LoadedAt time.Time `json:"loadedAt"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{Status: "ok", Schools: s.data.Len(), LoadedAt: s.data.LoadedAt()}
	status := http.StatusOK
	if health.Schools == 0 {
		health.Status = "empty"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

type listQuery struct {
	Q      string `query:"q" validate:"max=200"`
	Limit  int    `query:"limit" validate:"min=1,max=500"`
	Offset int    `query:"offset" validate:"min=0"`
}

type SchoolList struct {
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
	Schools []models.School `json:"schools"`
}

func (s *Server) handleSchools(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r)
	q := listQuery{
		Q:      p.String("q"),
		Limit:  p.Int("limit", defaultPageSize),
		Offset: p.Int("offset", 0),
	}
	if !p.Check(w, &q) {
		return
	}

	results := search.Search(s.data.All(), search.Options{
		Query:  q.Q,
		Negeri: p.String("negeri"),
		PPD:    p.String("ppd"),
		Jenis:  p.String("jenis"),
		Lokasi: p.String("lokasi"),
		Poskod: p.String("poskod"),
	})

	writeJSON(w, http.StatusOK, SchoolList{
		Total:   len(results),
		Limit:   q.Limit,
		Offset:  q.Offset,
		Schools: page(results, q.Offset, q.Limit),
	})
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

type SchoolDetail struct {
	School               models.School    `json:"school"`
	Comparison           stats.Comparison `json:"comparison"`
	PercentileMeaningful bool             `json:"percentileMeaningful"`
	Sizing               stats.Sizing     `json:"sizing"`
	HasFax               bool             `json:"hasFax"`
}

func (s *Server) handleSchool(w http.ResponseWriter, r *http.Request) {
	school, ok := s.data.ByKod(r.PathValue("kod"))
	if !ok {
		writeError(w, http.StatusNotFound, "school not found")
		return
	}

	cmp := s.stats.Comparison(s.data.All(), school)
	writeJSON(w, http.StatusOK, SchoolDetail{
		School:               school,
		Comparison:           cmp,
		PercentileMeaningful: cmp.PercentileMeaningful(),
		Sizing:               stats.IdealSizing(&school, stats.IdealClassSize),
		HasFax:               school.HasFax(),
	})
}

type suggestQuery struct {
	Q     string `query:"q" validate:"max=200"`
	Limit int    `query:"limit"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	res := s.limiter.Check(ratelimit.ClientIdentifier(r))
	if !res.Allowed {
		metrics.SuggestThrottledTotal.Inc()
		w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Code:       http.StatusTooManyRequests,
			Status:     "error",
			Message:    "too many requests",
			RetryAfter: res.RetryAfter,
		})
		return
	}

	p := newQueryParser(r)
	q := suggestQuery{
		Q:     p.String("q"),
		Limit: p.Int("limit", search.DefaultSuggestLimit),
	}
	if !p.Check(w, &q) {
		return
	}
	// Out-of-range limits are clamped; only malformed ones are rejected.
	q.Limit = min(max(q.Limit, 1), search.MaxSuggestLimit)

	writeJSON(w, http.StatusOK, search.Suggestions(s.data.All(), q.Q, q.Limit))
}

type nearQuery struct {
	Lat    float64 `query:"lat" validate:"min=-90,max=90"`
	Lng    float64 `query:"lng" validate:"min=-180,max=180"`
	Radius float64 `query:"radius" validate:"gt=0,max=100"`
	Limit  int     `query:"limit" validate:"min=1,max=500"`
}

type NearbySchool struct {
	models.School
	DistanceKm float64 `json:"distanceKm"`
	Distance   string  `json:"distance"`
}

type NearbyList struct {
	Lat      float64        `json:"lat"`
	Lng      float64        `json:"lng"`
	RadiusKm float64        `json:"radiusKm"`
	Total    int            `json:"total"`
	Schools  []NearbySchool `json:"schools"`
}

func (s *Server) handleNear(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r)
	q := nearQuery{
		Lat:    p.RequiredFloat("lat"),
		Lng:    p.RequiredFloat("lng"),
		Radius: p.Float("radius", defaultRadiusKm),
		Limit:  p.Int("limit", defaultPageSize),
	}
	if !p.Check(w, &q) {
		return
	}

	near := geo.Near(s.data.All(), q.Lat, q.Lng, q.Radius)
	out := NearbyList{
		Lat:      q.Lat,
		Lng:      q.Lng,
		RadiusKm: q.Radius,
		Total:    len(near),
		Schools:  make([]NearbySchool, 0, min(len(near), q.Limit)),
	}
	for _, n := range page(near, 0, q.Limit) {
		out.Schools = append(out.Schools, NearbySchool{
			School:     n.School,
			DistanceKm: n.DistanceKm,
			Distance:   geo.FormatDistanceKm(n.DistanceKm),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.export == nil {
		writeError(w, http.StatusInternalServerError, "export unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="schools.json"`)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(s.export)))
	w.Write(s.export)
}

type Filters struct {
	Negeri []string `json:"negeri"`
	PPD    []string `json:"ppd"`
	Jenis  []string `json:"jenis"`
	Lokasi []string `json:"lokasi"`
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Filters{
		Negeri: s.data.UniqueNegeri(),
		PPD:    s.data.UniquePPD(),
		Jenis:  s.data.UniqueJenis(),
		Lokasi: s.data.UniqueLokasi(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Overview(s.data.All()))
}
