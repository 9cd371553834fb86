package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"
	"golang.org/x/text/encoding/charmap"

	"github.com/lox/carisekolah/internal/httputil"
)

const (
	MaxRedirects = 5
	UserAgent    = "KPM-School-Sync/1.0"

	// DefaultMaxBodyBytes caps the size of a downloaded export.
	DefaultMaxBodyBytes = 64 << 20
)

var (
	ErrTooManyRedirects = httputil.ErrTooManyRedirects
	ErrHTTPStatus       = errors.New("unexpected http status")
	ErrBodyTooLarge     = errors.New("export too large")
)

// StatusError reports a non-200 response from the source.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.URL)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// Fetcher downloads the spreadsheet export over http(s) or ftp.
type Fetcher struct {
	client     *http.Client
	timeout    time.Duration
	maxBody    int64
	newBackOff func() backoff.BackOff
}

// NewFetcher returns a Fetcher whose retries of transient failures give up
// after maxElapsed.
func NewFetcher(timeout, maxElapsed time.Duration) *Fetcher {
	return &Fetcher{
		client:  httputil.NewClient(timeout, MaxRedirects),
		timeout: timeout,
		maxBody: DefaultMaxBodyBytes,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = maxElapsed
			return bo
		},
	}
}

// Fetched is a downloaded export.
type Fetched struct {
	URL    string
	Status int // 0 for ftp
	Body   []byte
}

// Fetch downloads rawURL. Network errors, 429 and 5xx responses are retried;
// other statuses and redirect chains longer than MaxRedirects fail at once.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Fetched, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}

	var fetched *Fetched
	var operation func() error
	switch u.Scheme {
	case "http", "https":
		operation = func() error {
			var err error
			fetched, err = f.fetchHTTP(ctx, rawURL)
			return err
		}
	case "ftp":
		operation = func() error {
			var err error
			fetched, err = f.fetchFTP(ctx, u)
			return err
		}
	default:
		return nil, fmt.Errorf("unsupported source scheme %q", u.Scheme)
	}

	if err := backoff.Retry(operation, backoff.WithContext(f.newBackOff(), ctx)); err != nil {
		return nil, err
	}
	return fetched, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) (*Fetched, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrTooManyRedirects) || ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("fetch: %w", err))
		}
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{Status: resp.StatusCode, URL: resp.Request.URL.String()}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	body, err := f.readBody(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Fetched{URL: resp.Request.URL.String(), Status: resp.StatusCode, Body: body}, nil
}

func (f *Fetcher) fetchFTP(ctx context.Context, u *url.URL) (*Fetched, error) {
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "21")
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("ftp login: %w", err))
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("ftp retr: %w", err))
	}
	defer resp.Close()

	body, err := f.readBody(resp)
	if err != nil {
		return nil, err
	}
	return &Fetched{URL: u.Redacted(), Body: body}, nil
}

// readBody reads at most maxBody bytes. A longer export fails permanently
// rather than being truncated mid-row.
func (f *Fetcher) readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, backoff.Permanent(fmt.Errorf("%w: exceeds %d bytes", ErrBodyTooLarge, f.maxBody))
	}
	return body, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText returns the export as a string. A UTF-8 BOM is dropped and bytes
// that are not valid UTF-8 are read as Windows-1252.
func DecodeText(b []byte) (string, error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if utf8.Valid(b) {
		return string(b), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode windows-1252: %w", err)
	}
	return string(out), nil
}
