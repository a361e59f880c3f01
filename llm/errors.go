package llm

import (
	"errors"
	"fmt"
)

// ErrorKind is one member of the shared, provider-independent error taxonomy.
type ErrorKind string

const (
	ErrKindConnection        ErrorKind = "connection"
	ErrKindServerUnavailable ErrorKind = "server_unavailable"
	ErrKindRateLimit         ErrorKind = "rate_limit"
	ErrKindAuthorization     ErrorKind = "authorization"
	ErrKindBadRequest        ErrorKind = "bad_request"

	// ErrKindInvoke is the generic fallback for provider errors matching no
	// declared kind.
	ErrKindInvoke ErrorKind = "invoke"
)

// kindOrder fixes match priority for normalization: most specific first,
// the generic kind last.
var kindOrder = [...]ErrorKind{
	ErrKindConnection,
	ErrKindServerUnavailable,
	ErrKindRateLimit,
	ErrKindAuthorization,
	ErrKindBadRequest,
	ErrKindInvoke,
}

// InvokeError is a provider error normalized onto the shared taxonomy.
//
// Callers never observe a backend's native error types across the
// orchestrator boundary; they always see an InvokeError carrying the
// original message and cause.
type InvokeError struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Cause    error
}

func (e *InvokeError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Provider != "" {
		return fmt.Sprintf("llm %s: [%s] %s", e.Provider, e.Kind, msg)
	}
	return fmt.Sprintf("llm: [%s] %s", e.Kind, msg)
}

func (e *InvokeError) Unwrap() error { return e.Cause }

func AsInvokeError(err error) (*InvokeError, bool) {
	var e *InvokeError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is an InvokeError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	e, ok := AsInvokeError(err)
	return ok && e.Kind == kind
}

// ValidationError is a parameter rule violation. It is always local: no
// provider call is made once validation fails.
type ValidationError struct {
	Parameter string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("llm: parameter %s %s", e.Parameter, e.Message)
}

func AsValidationError(err error) (*ValidationError, bool) {
	var e *ValidationError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ErrorTable is a backend's declarative mapping from error kind to the set
// of native error values it recognizes for that kind. Matching uses
// errors.Is, so entries are sentinel errors the backend wraps its failures
// with.
type ErrorTable map[ErrorKind][]error

// Normalize maps a raw provider error onto the shared taxonomy using the
// backend's error table. Errors that are already normalized pass through
// unchanged; anything matching no declared kind surfaces as ErrKindInvoke.
func Normalize(provider string, table ErrorTable, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsInvokeError(err); ok {
		return err
	}

	for _, kind := range kindOrder {
		for _, target := range table[kind] {
			if target != nil && errors.Is(err, target) {
				return &InvokeError{Kind: kind, Provider: provider, Message: err.Error(), Cause: err}
			}
		}
	}
	return &InvokeError{Kind: ErrKindInvoke, Provider: provider, Message: err.Error(), Cause: err}
}
