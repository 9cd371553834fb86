package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const DefaultTimeout = 30 * time.Second

var ErrTooManyRedirects = errors.New("too many redirects")

// NewClient returns an HTTP client with the given timeout that follows at most
// maxRedirects redirects. Zero timeout means DefaultTimeout.
func NewClient(timeout time.Duration, maxRedirects int) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("%w (%d) at %s", ErrTooManyRedirects, len(via), req.URL)
			}
			return nil
		},
	}
}
