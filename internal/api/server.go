package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/lox/carisekolah/internal/dataset"
	"github.com/lox/carisekolah/internal/metrics"
	"github.com/lox/carisekolah/internal/ratelimit"
)

const DefaultStatsTTL = time.Hour

type Config struct {
	Port        string
	CORSOrigins []string
	// StatsTTL bounds how long computed statistics are kept in memory.
	StatsTTL time.Duration
	// Limiter throttles typeahead requests. Nil uses the default window.
	Limiter *ratelimit.Limiter
}

type Server struct {
	data    *dataset.Dataset
	port    string
	origins []string
	limiter *ratelimit.Limiter
	stats   *statsCache
	export  []byte
}

func NewServer(data *dataset.Dataset, cfg Config) *Server {
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.New(ratelimit.DefaultWindow, ratelimit.DefaultMax)
	}
	if cfg.StatsTTL <= 0 {
		cfg.StatsTTL = DefaultStatsTTL
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	export, err := json.Marshal(data.All())
	if err != nil {
		log.Printf("api: encode export: %v", err)
	}
	metrics.DatasetSchools.Set(float64(data.Len()))

	return &Server{
		data:    data,
		port:    cfg.Port,
		origins: cfg.CORSOrigins,
		limiter: cfg.Limiter,
		stats:   newStatsCache(cfg.StatsTTL),
		export:  export,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/schools", s.handleSchools)
	mux.HandleFunc("GET /api/schools/suggest", s.handleSuggest)
	mux.HandleFunc("GET /api/schools/near", s.handleNear)
	mux.HandleFunc("GET /api/schools/export", s.handleExport)
	mux.HandleFunc("GET /api/schools/{kod}", s.handleSchool)
	mux.HandleFunc("GET /api/filters", s.handleFilters)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		MaxAge:         3600,
	})
	return logRequests(instrument(c.Handler(mux)))
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("api: listening on :%s with %d schools", s.port, s.data.Len())
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
