package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	DefaultWindow = 60 * time.Second
	DefaultMax    = 60
	// PruneThreshold is the table size above which expired entries are
	// dropped on the next check.
	PruneThreshold = 10000
)

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window request counter keyed by client identifier.
type Limiter struct {
	window time.Duration
	limit  int
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// New returns a Limiter allowing limit requests per window for each
// identifier. Zero values select DefaultWindow and DefaultMax.
func New(window time.Duration, limit int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultMax
	}
	return &Limiter{
		window:  window,
		limit:   limit,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Result is the outcome of a Check.
type Result struct {
	Allowed bool
	// RetryAfter is the whole seconds, rounded up, until the window resets.
	// Zero when allowed.
	RetryAfter int
}

// Check counts a request from id.
func (l *Limiter) Check(id string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.entries) > PruneThreshold {
		l.prune(now)
	}

	e, ok := l.entries[id]
	if !ok || !e.resetAt.After(now) {
		l.entries[id] = &entry{count: 1, resetAt: now.Add(l.window)}
		return Result{Allowed: true}
	}

	e.count++
	if e.count > l.limit {
		wait := e.resetAt.Sub(now)
		secs := int((wait + time.Second - 1) / time.Second)
		return Result{RetryAfter: secs}
	}
	return Result{Allowed: true}
}

// Len is the number of tracked identifiers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) prune(now time.Time) {
	for id, e := range l.entries {
		if !e.resetAt.After(now) {
			delete(l.entries, id)
		}
	}
}

// ClientIdentifier returns the first address in X-Forwarded-For, or
// "unknown" when the header is missing or blank.
func ClientIdentifier(r *http.Request) string {
	fwd := r.Header.Get("X-Forwarded-For")
	if fwd == "" {
		return "unknown"
	}
	first, _, _ := strings.Cut(fwd, ",")
	if ip := strings.TrimSpace(first); ip != "" {
		return ip
	}
	return "unknown"
}
