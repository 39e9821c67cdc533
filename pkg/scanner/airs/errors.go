package airs

import (
	"errors"
	"fmt"
	"net/http"
)

// FailureClass classifies a scan transport failure. The retry loop decides
// whether to continue purely from this classification, never from raw status
// codes, so the retry policy stays a function of (attempt count, class).
type FailureClass string

const (
	// FailureTransient covers connection failures, timeouts, undecodable
	// response bodies, and server errors that may succeed on a later attempt.
	FailureTransient FailureClass = "transient"

	// FailureAuth means the API key was rejected. Never retried.
	FailureAuth FailureClass = "auth_failed"

	// FailureProfileNotFound means the named AI security profile does not
	// exist on the service. Never retried.
	FailureProfileNotFound FailureClass = "profile_not_found"

	// FailureRetriesExhausted wraps the last transient failure once the
	// retry budget has run out.
	FailureRetriesExhausted FailureClass = "retries_exhausted"
)

// TransportError is a classified scan transport failure. It is the only
// error type the scan client returns for network and protocol failures.
type TransportError struct {
	Class      FailureClass
	StatusCode int // HTTP status of the failing response, 0 if none was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("scan transport: %s (status %d): %v", e.Class, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("scan transport: %s: %v", e.Class, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retriable reports whether the failure class permits another attempt.
func (e *TransportError) Retriable() bool {
	return e.Class == FailureTransient
}

// AsTransportError unwraps a TransportError from err, if one is present.
func AsTransportError(err error) (*TransportError, bool) {
	var terr *TransportError
	ok := errors.As(err, &terr)
	return terr, ok
}

// classifyStatus maps a non-2xx HTTP status to a failure class. Credential
// rejection and unknown-profile responses are terminal; everything else is
// worth another attempt.
func classifyStatus(status int) FailureClass {
	switch status {
	case http.StatusUnauthorized:
		return FailureAuth
	case http.StatusNotFound:
		return FailureProfileNotFound
	default:
		return FailureTransient
	}
}
