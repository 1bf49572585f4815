package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExists     = errors.New("session already exists")
	ErrReportNotFound    = errors.New("report not found")
	ErrSessionResolved   = errors.New("session already resolved")
	ErrSessionNotReady   = errors.New("session has no summary to resolve yet")
	ErrInvalidVisibility = errors.New("visibility must be public or private")
)

// BackendErrorKind classifies generative backend failures.
type BackendErrorKind string

const (
	BackendUnavailable       BackendErrorKind = "unavailable"
	BackendEmptyResponse     BackendErrorKind = "empty_response"
	BackendMalformedResponse BackendErrorKind = "malformed_response"
)

var (
	ErrBackendUnavailable = &BackendError{Kind: BackendUnavailable}
	ErrBackendEmpty       = &BackendError{Kind: BackendEmptyResponse}
	ErrBackendMalformed   = &BackendError{Kind: BackendMalformedResponse}
)

// BackendError represents a failed exchange with the generative backend.
// errors.Is matches any BackendError of the same Kind.
type BackendError struct {
	Kind BackendErrorKind
	Op   string // "reply", "summary"
	Err  error
}

func (e *BackendError) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return fmt.Sprintf("backend %s", e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("backend %s [%s]", e.Kind, e.Op)
	default:
		return fmt.Sprintf("backend %s [%s]: %v", e.Kind, e.Op, e.Err)
	}
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func (e *BackendError) Is(target error) bool {
	t, ok := target.(*BackendError)
	return ok && t.Kind == e.Kind
}
