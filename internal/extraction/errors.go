package extraction

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse is returned when the oracle's answer is not valid JSON
	ErrMalformedResponse = errors.New("malformed response")

	// ErrEmptyResponse is returned when the oracle answers with nothing
	ErrEmptyResponse = errors.New("empty response")

	// ErrOracleFailure is returned when the oracle call itself fails (network, auth, quota)
	ErrOracleFailure = errors.New("oracle failure")

	// ErrConfiguration is returned when an oracle cannot be constructed, e.g. a missing API key
	ErrConfiguration = errors.New("configuration error")
)

// Error describes a failed extraction. Analyze still returns a usable, empty
// result alongside it.
type Error struct {
	// Kind is one of ErrMalformedResponse, ErrEmptyResponse or ErrOracleFailure
	Kind error
	// Raw is the oracle's unparsed answer, kept for display
	Raw string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Code is a stable identifier for the error kind
func (e *Error) Code() string {
	switch e.Kind {
	case ErrMalformedResponse:
		return "malformed_response"
	case ErrEmptyResponse:
		return "empty_response"
	case ErrOracleFailure:
		return "oracle_failure"
	default:
		return "unknown"
	}
}
