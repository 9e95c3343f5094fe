// Package apperr defines the error kinds shared by the portal layers and how
// each kind is presented to the dashboards.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	// ErrValidation is returned for malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a slot is already booked or a write raced another.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState is returned when a transition is not allowed from the current status.
	ErrInvalidState = errors.New("invalid state")

	// ErrForbidden is returned on role or ownership mismatch.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized is returned when no valid session is present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when the remote record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNetwork is returned on transport failures.
	ErrNetwork = errors.New("network error")

	// ErrUpstream is returned for any other non-2xx answer from the REST API.
	ErrUpstream = errors.New("upstream error")
)

// Error carries a kind together with the failing operation and, for remote
// failures, the HTTP status the API answered with.
type Error struct {
	Kind    error
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// New builds an error of the given kind.
func New(kind error, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Validation is shorthand for New(ErrValidation, ...).
func Validation(op, message string) *Error {
	return New(ErrValidation, op, message)
}

// Wrap attaches a kind to an existing cause.
func Wrap(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// FromStatus maps a non-2xx answer of the REST API onto an error kind.
func FromStatus(op string, status int, message string) *Error {
	var kind error
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = ErrValidation
	case http.StatusUnauthorized:
		kind = ErrUnauthorized
	case http.StatusForbidden:
		kind = ErrForbidden
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusConflict:
		kind = ErrConflict
	default:
		kind = ErrUpstream
	}
	return &Error{Kind: kind, Op: op, Status: status, Message: strings.TrimSpace(message)}
}

// FromTransport classifies a failure returned by http.Client.Do.
func FromTransport(op string, err error) *Error {
	return &Error{Kind: ErrNetwork, Op: op, Err: err}
}

// IsTransport reports whether err looks like a dial, timeout or cancellation failure.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Kind returns the sentinel kind of err, or ErrUpstream when none is attached.
func Kind(err error) error {
	for _, kind := range []error{
		ErrValidation, ErrConflict, ErrInvalidState, ErrForbidden,
		ErrUnauthorized, ErrNotFound, ErrNetwork, ErrUpstream,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	// A request that ran out of time or was abandoned never got an answer.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrNetwork
	}
	return ErrUpstream
}

// StatusClientClosedRequest is answered when the caller went away first.
const StatusClientClosedRequest = 499

// HTTPStatus picks the status the portal answers with for err.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrConflict, ErrInvalidState:
		return http.StatusConflict
	case ErrForbidden:
		return http.StatusForbidden
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrNotFound:
		return http.StatusNotFound
	case ErrNetwork:
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return http.StatusGatewayTimeout
		case errors.Is(err, context.Canceled):
			return StatusClientClosedRequest
		}
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

// Presentation is what a dashboard shows for a failure. Blocking failures
// become alerts; the rest render inline.
type Presentation struct {
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	Blocking    bool   `json:"blocking"`
	RetryPrompt string `json:"retryPrompt,omitempty"`
}

const genericRetry = "Something went wrong while contacting the server. Please try again."

// Present converts err to its user-facing form. Nothing here retries.
func Present(err error) Presentation {
	if err == nil {
		return Presentation{}
	}
	msg := err.Error()
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		msg = appErr.Message
	}

	switch Kind(err) {
	case ErrValidation:
		return Presentation{Kind: "validation", Message: msg}
	case ErrConflict:
		return Presentation{Kind: "conflict", Message: msg, Blocking: true}
	case ErrInvalidState:
		return Presentation{Kind: "invalid_state", Message: msg, Blocking: true}
	case ErrForbidden:
		return Presentation{Kind: "forbidden", Message: msg, Blocking: true}
	case ErrUnauthorized:
		return Presentation{Kind: "unauthorized", Message: "Please sign in again.", Blocking: true}
	case ErrNotFound:
		return Presentation{Kind: "not_found", Message: msg}
	case ErrNetwork:
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return Presentation{Kind: "timeout", Message: "The server took too long to respond.", RetryPrompt: genericRetry}
		case errors.Is(err, context.Canceled):
			return Presentation{Kind: "cancelled", Message: "The request was cancelled."}
		}
		return Presentation{Kind: "network", Message: "The server could not be reached.", RetryPrompt: genericRetry}
	default:
		return Presentation{Kind: "upstream", Message: msg, RetryPrompt: genericRetry}
	}
}
