package core

import (
	"errors"
)

// Error kinds surfaced by registration and dispatch. Callers select a kind with
// errors.Is; the wrapping error carries the details.
var (
	ErrDuplicateAction      = errors.New("action already registered")
	ErrUnknownAction        = errors.New("action not registered")
	ErrMalformedPayload     = errors.New("malformed action payload")
	ErrMissingAuthorization = errors.New("missing required authorization")
	ErrHandlerExecution     = errors.New("action handler failed")

	ErrRegistrySealed = errors.New("registry is sealed")
	ErrInvalidSchema  = errors.New("invalid action schema")
	ErrInvalidName    = errors.New("invalid name")
)

// Kind returns a short label for the error kind of err, suitable for logs and
// metric labels. Errors outside the taxonomy report "internal".
// ErrHandlerExecution is checked first since handlers may return errors that
// wrap other kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrHandlerExecution):
		return "handler_execution"
	case errors.Is(err, ErrDuplicateAction):
		return "duplicate_action"
	case errors.Is(err, ErrUnknownAction):
		return "unknown_action"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrMissingAuthorization):
		return "missing_authorization"
	case errors.Is(err, ErrRegistrySealed):
		return "registry_sealed"
	case errors.Is(err, ErrInvalidSchema):
		return "invalid_schema"
	case errors.Is(err, ErrInvalidName):
		return "invalid_name"
	}
	return "internal"
}
