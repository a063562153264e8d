package proofreader

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// TransientError marks a failure worth retrying: rate limits, server-side
// trouble, network hiccups. RetryAfter carries the server's wait hint and is
// zero when the response had none.
type TransientError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transient: %s", e.Message)
}

// FatalError marks a failure no retry can cure, such as a rejected API key
// or a malformed request.
type FatalError struct {
	StatusCode int
	Message    string
}

func (e *FatalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fatal: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fatal: %s", e.Message)
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// classifyStatus converts a non-200 response into the matching error kind.
// Rate limits, request timeouts, and server errors may clear up on a later
// attempt; everything else in the 4xx range will not.
func classifyStatus(status int, body string, retryAfter time.Duration) error {
	if status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500 {
		return &TransientError{StatusCode: status, Message: body, RetryAfter: retryAfter}
	}
	return &FatalError{StatusCode: status, Message: body}
}

// parseRetryAfter reads a Retry-After header given in seconds. The HTTP-date
// form is not produced by the APIs we call and is ignored.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
