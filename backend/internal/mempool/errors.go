package mempool

import "fmt"

// HTTPError is a non-200 response from the explorer.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("mempool: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("mempool: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for rate limits and server errors.
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// IsNotFound returns true when the explorer does not know the resource.
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == 404
}
