package gcp

import (
	"context"
	"errors"
	"net"

	"google.golang.org/api/googleapi"
)

// IsRetryable classifies an error as a transient infrastructure failure
// worth retrying: rate limits and server-side errors from the Google
// APIs, or network timeouts. Business failures (a stage deliberately
// returning FAILED), missing objects and cancelled contexts are not
// retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrObjectNotFound) {
		return false
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return false
}
