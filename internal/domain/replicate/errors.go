package replicate

import (
	"fmt"
	"time"
)

// APIError carries the upstream status code and response body of a
// non-success Replicate API response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Replicate API error (status %d): %s", e.StatusCode, e.Body)
}

// TimeoutError reports a prediction that did not reach a terminal status
// within the allotted wait window.
type TimeoutError struct {
	PredictionID string
	Timeout      time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("prediction %s did not complete within %.0f seconds", e.PredictionID, e.Timeout.Seconds())
}
