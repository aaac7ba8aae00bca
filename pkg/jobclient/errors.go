package jobclient

import (
	"errors"
	"fmt"
)

// ErrJobNotFound is returned when the API has no job for the given id. The
// poller treats it as terminal: a missing job will not appear by waiting.
var ErrJobNotFound = errors.New("job not found")

// APIError is a non-2xx response from the job API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// ValidationError reports whether the request was rejected by input
// validation rather than a server-side fault.
func (e *APIError) ValidationError() bool {
	return e.StatusCode == 400
}
