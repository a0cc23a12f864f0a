package providers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-friend/internal/weather"
)

const (
	// DefaultTimeout applies when no *http.Client is injected.
	DefaultTimeout = 10 * time.Second

	breakerTripAfter = 5
	breakerOpenFor   = 2 * time.Minute
)

var errNoHTTPClient = errors.New("http client not configured")

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0, // counts only reset on state change
		Timeout:     breakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= breakerTripAfter
		},
		IsSuccessful: countsAsSuccess,
	})
}

// countsAsSuccess keeps client errors (bad key, bad coordinates) from tripping
// the breaker. Only transport failures and 5xx answers count.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var statusErr *weather.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < 500
	}
	return false
}

// doRequest performs exactly one round-trip through the breaker.
// Non-2xx answers become *weather.HTTPStatusError and transport failures
// become *weather.NetworkError. Nothing is retried here.
func doRequest(client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, &weather.NetworkError{Err: err}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// Drain so the connection can be reused.
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, &weather.HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.NetworkError{Err: err}
		}
		return nil, err
	}

	return result.(*http.Response), nil
}
