package relay

import (
	"errors"
	"net/http"

	"github.com/zjx20/gemini-relay/gemini"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindMethodNotAllowed
	KindBadRequest
	KindConfiguration
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindBadRequest:
		return "bad_request"
	case KindConfiguration:
		return "configuration"
	case KindUpstream:
		return "upstream"
	default:
		return "unexpected"
	}
}

// Error is a failed invocation, already mapped to the status the caller sees.
type Error struct {
	Kind   Kind
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	ErrMethodNotAllowed = &Error{Kind: KindMethodNotAllowed, Status: http.StatusMethodNotAllowed, Msg: "method not allowed"}
	ErrMissingAPIKey    = &Error{Kind: KindConfiguration, Status: http.StatusInternalServerError, Msg: "GEMINI_API_KEY is not configured"}
)

func badRequest(msg string, err error) *Error {
	return &Error{Kind: KindBadRequest, Status: http.StatusBadRequest, Msg: msg, Err: err}
}

// classify maps any error returned by a step onto the caller-facing taxonomy.
// Upstream statuses are mirrored; everything unknown becomes a 500 carrying
// the error's own message.
func classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var apiErr *gemini.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return &Error{Kind: KindUpstream, Status: status, Msg: apiErr.Error(), Err: err}
	}
	return &Error{Kind: KindUnexpected, Status: http.StatusInternalServerError, Msg: err.Error(), Err: err}
}
