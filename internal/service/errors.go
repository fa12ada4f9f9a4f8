package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors returned from the service layer. Handlers translate
// them to HTTP status codes; nothing here is fatal to the process, and
// a failed operation leaves all stored state unchanged.
var (
	// ErrForbidden means a role policy check failed.
	ErrForbidden = errors.New("forbidden")

	// ErrProtectedTarget means the operation targets the owner account
	// and the caller is not the owner.
	ErrProtectedTarget = errors.New("owner account is protected")

	// ErrNotFound means an ID did not resolve to a record.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateIdentity means a registration collided with an
	// existing identity.
	ErrDuplicateIdentity = errors.New("identity already registered")

	// ErrInvalidCredential means a login secret did not match.
	ErrInvalidCredential = errors.New("invalid credentials")

	// ErrAccountNotFound means a login identity is unknown.
	ErrAccountNotFound = errors.New("account not found")
)

// ValidationError reports per-field input problems, keyed by field ID.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps err into a *ValidationError if possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
