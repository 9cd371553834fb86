package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// newTestFetcher returns a Fetcher that retries up to retries times with no
// delay between attempts.
func newTestFetcher(retries uint64) *Fetcher {
	f := NewFetcher(5*time.Second, time.Minute)
	f.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, retries)
	}
	return f
}

func TestFetch_OK(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("KODSEKOLAH\nA1\n"))
	}))
	defer srv.Close()

	got, err := newTestFetcher(0).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.Status != http.StatusOK || string(got.Body) != "KODSEKOLAH\nA1\n" {
		t.Errorf("Fetch = %d %q", got.Status, got.Body)
	}
	if gotUA != UserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, UserAgent)
	}
}

func TestFetch_ClientErrorIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestFetcher(3).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrHTTPStatus) {
		t.Fatalf("err = %v, want ErrHTTPStatus", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusNotFound {
		t.Errorf("status error = %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestFetch_ServerErrorRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	got, err := newTestFetcher(3).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(got.Body) != "ok" {
		t.Errorf("body = %q", got.Body)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("server hit %d times, want 3", n)
	}
}

func TestFetch_ServerErrorGivesUp(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestFetcher(2).Fetch(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusInternalServerError {
		t.Fatalf("err = %v, want HTTP 500", err)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("server hit %d times, want 3", n)
	}
}

func TestFetch_RedirectLoop(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, "/again", http.StatusFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher(3).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Fatalf("err = %v, want ErrTooManyRedirects", err)
	}
	if n := hits.Load(); n != MaxRedirects+1 {
		t.Errorf("server hit %d times, want %d", n, MaxRedirects+1)
	}
}

func TestFetch_RedirectFollowed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/edit", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/export", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("csv"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := newTestFetcher(0).Fetch(context.Background(), srv.URL+"/edit")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.URL != srv.URL+"/export" {
		t.Errorf("final URL = %q", got.URL)
	}
}

func TestFetch_BodyLimit(t *testing.T) {
	const body = "KODSEKOLAH,NEGERI\nJBA0001,JOHOR\nJBA0002,JOHOR\n"
	tests := []struct {
		name    string
		limit   int64
		wantErr bool
	}{
		{"under limit", int64(len(body)) + 1, false},
		{"exactly limit", int64(len(body)), false},
		{"over limit", int64(len(body)) - 1, true},
		{"cut mid-row", 20, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.Write([]byte(body))
			}))
			defer srv.Close()

			f := newTestFetcher(3)
			f.maxBody = tt.limit
			got, err := f.Fetch(context.Background(), srv.URL)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Fetch: %v", err)
				}
				if string(got.Body) != body {
					t.Errorf("body = %q", got.Body)
				}
				return
			}
			if !errors.Is(err, ErrBodyTooLarge) {
				t.Fatalf("err = %v, want ErrBodyTooLarge", err)
			}
			if got != nil {
				t.Errorf("partial export returned: %q", got.Body)
			}
			if hits.Load() != 1 {
				t.Errorf("hits = %d, oversized export should not be retried", hits.Load())
			}
		})
	}
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	if _, err := newTestFetcher(0).Fetch(context.Background(), "file:///etc/passwd"); err == nil {
		t.Fatal("expected error for file:// source")
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"plain", []byte("KODSEKOLAH"), "KODSEKOLAH"},
		{"bom", append([]byte{0xEF, 0xBB, 0xBF}, "NEGERI"...), "NEGERI"},
		{"windows-1252", []byte{'C', 'a', 'f', 0xE9}, "Café"},
		{"utf-8 kept", []byte("Café"), "Café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.in)
			if err != nil {
				t.Fatalf("DecodeText: %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeText = %q, want %q", got, tt.want)
			}
		})
	}
}
