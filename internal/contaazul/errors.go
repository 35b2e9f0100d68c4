package contaazul

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned once a page stays rate limited past the retry cap.
var ErrRateLimited = errors.New("rate limit retries exhausted")

// UpstreamError reports a non-2xx response or a transport failure.
type UpstreamError struct {
	Resource   string
	Page       int
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s page %d: request failed: %v", e.Resource, e.Page, e.Err)
	}
	return fmt.Sprintf("%s page %d: unexpected status %d: %s", e.Resource, e.Page, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
