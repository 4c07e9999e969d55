package tmdb

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const maxDrain = 64 << 10

// Transport retries idempotent requests with exponential backoff.
//
// Retried: network errors, 429 and 502/503/504. A Retry-After header on a
// retried response overrides the backoff interval. The final attempt's
// response is returned as is so that callers see the real status. Requests
// whose context is done are never retried.
type Transport struct {
	Base http.RoundTripper

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// InitialInterval is the first backoff interval.
	InitialInterval time.Duration
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) &&
		(req.Body == nil || req.Body == http.NoBody)
	if !canRetry || t.MaxRetries <= 0 {
		return base.RoundTrip(req)
	}

	b := backoff.NewExponentialBackOff()
	if t.InitialInterval > 0 {
		b.InitialInterval = t.InitialInterval
	}

	attempt := 0
	op := func() (*http.Response, error) {
		attempt++
		resp, err := base.RoundTrip(req.Clone(req.Context()))
		if err != nil {
			if req.Context().Err() != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		if !retryableStatus(resp.StatusCode) || attempt > t.MaxRetries {
			return resp, nil
		}

		wait := parseRetryAfter(resp.Header.Get("Retry-After"))
		drainAndClose(resp)
		if wait > 0 {
			return nil, backoff.RetryAfter(wait)
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	return backoff.Retry(req.Context(), op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(t.MaxRetries+1)),
	)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// parseRetryAfter understands the delay-seconds form only.
func parseRetryAfter(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	_ = resp.Body.Close()
}
