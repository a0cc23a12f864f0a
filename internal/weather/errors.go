package weather

import "fmt"

// HTTPStatusError is returned when the provider answers with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("weather provider returned status %d", e.StatusCode)
}

// NetworkError wraps transport failures: DNS, refused connections, timeouts,
// and calls short-circuited by an open breaker.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("weather provider unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError means a 2xx body did not have the expected shape.
type MalformedResponseError struct {
	Field string // empty when the body is not valid JSON at all
	Err   error
}

func (e *MalformedResponseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed weather response: %v", e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("malformed weather response: %s missing", e.Field)
	}
	return fmt.Sprintf("malformed weather response: %s: %v", e.Field, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
