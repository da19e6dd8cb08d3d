package meeting

import (
	"errors"
	"fmt"
)

// Kind classifies an error for status mapping and result reporting.
type Kind string

const (
	KindInput          Kind = "input_error"
	KindInterpretation Kind = "interpretation_error"
	KindTime           Kind = "time_error"
	KindProvider       Kind = "provider_error"
	KindInternal       Kind = "internal_error"
)

// Role distinguishes the primary provider, whose failure aborts the booking,
// from the secondary one, whose failure only degrades it.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

// InputError reports a malformed or empty request.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Reason
}

// InterpretationError reports that the text-understanding provider failed or
// returned something that is not a valid meeting draft.
type InterpretationError struct {
	Reason string
	Err    error
}

func (e *InterpretationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("interpretation failed: %s: %v", e.Reason, e.Err)
	}
	return "interpretation failed: " + e.Reason
}

func (e *InterpretationError) Unwrap() error { return e.Err }

// TimeError reports a draft whose times are missing, unparsable or inconsistent.
type TimeError struct {
	Reason string
}

func (e *TimeError) Error() string {
	return e.Reason
}

// Reasons used by Validate.
const (
	ReasonInvalidStart   = "missing or invalid start"
	ReasonInvalidEnd     = "invalid end"
	ReasonStartNotFuture = "start not in future"
	ReasonEndBeforeStart = "end before start"
)

// ProviderError reports a failed call to a downstream provider.
type ProviderError struct {
	Provider Provider
	Role     Role
	// Code is the provider's status or error code, when it returned one.
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s: %s", e.Provider, e.Role, e.Code, msg)
	}
	return fmt.Sprintf("%s (%s): %s", e.Provider, e.Role, msg)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// KindOf returns the taxonomy kind for err.
func KindOf(err error) Kind {
	var (
		inputErr  *InputError
		interpErr *InterpretationError
		timeErr   *TimeError
		provErr   *ProviderError
	)
	switch {
	case errors.As(err, &inputErr):
		return KindInput
	case errors.As(err, &interpErr):
		return KindInterpretation
	case errors.As(err, &timeErr):
		return KindTime
	case errors.As(err, &provErr):
		return KindProvider
	default:
		return KindInternal
	}
}

// FailureFrom converts err into a result entry for provider.
// A ProviderError's own provider takes precedence.
func FailureFrom(provider Provider, err error) ProviderFailure {
	var provErr *ProviderError
	if errors.As(err, &provErr) && provErr.Provider != "" {
		provider = provErr.Provider
	}
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return ProviderFailure{
		Provider: provider,
		Kind:     KindOf(err),
		Detail:   detail,
	}
}
