package analyzer

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind classifies why an Attempt failed.
type FailureKind int

const (
	FailureTransport FailureKind = iota // No response reachable
	FailureProtocol                     // Non-success status
	FailureMalformed                    // Success status, unusable payload
)

// String returns the display name for each kind
func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureProtocol:
		return "protocol"
	case FailureMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name in JSON output.
func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Failure is the human-readable reason surfaced when an Attempt fails.
type Failure struct {
	Kind       FailureKind `json:"kind"`
	Message    string      `json:"message"`
	StatusCode int         `json:"status_code,omitempty"`
}

const (
	messageTransport = "Could not reach the analysis service"
	messageUnknown   = "Something went wrong"
)

// TransportError reports that the analysis service could not be reached.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("analysis service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Request failed: %d", e.Code)
}

// MalformedError reports a 2xx response whose body is not a usable assessment.
type MalformedError struct {
	Code   int
	Field  string // Offending field, empty when the body is not JSON at all
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed response (status %d): %s %s", e.Code, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed response (status %d): %s", e.Code, e.Reason)
}

// failureFrom converts any scorer error into the Failure shown to the user.
func failureFrom(err error) *Failure {
	var (
		statusErr    *StatusError
		malformedErr *MalformedError
		transportErr *TransportError
	)

	switch {
	case errors.As(err, &statusErr):
		return &Failure{
			Kind:       FailureProtocol,
			Message:    statusErr.Error(),
			StatusCode: statusErr.Code,
		}
	case errors.As(err, &malformedErr):
		return &Failure{
			Kind:       FailureMalformed,
			Message:    fmt.Sprintf("Request failed: %d (malformed response)", malformedErr.Code),
			StatusCode: malformedErr.Code,
		}
	case errors.As(err, &transportErr):
		return &Failure{Kind: FailureTransport, Message: messageTransport}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: FailureTransport, Message: messageTransport}
	default:
		return &Failure{Kind: FailureTransport, Message: messageUnknown}
	}
}
