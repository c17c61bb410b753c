package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	ErrMsgNotAuthenticated           = "no resolved account"
	ErrMsgLookupFailure              = "history lookup failed"
	ErrMsgInvalidChallengeDefinition = "no active challenge definition"
	ErrMsgConcurrencyConflict        = "challenge progress was modified concurrently"
	ErrMsgInvalidCatch               = "invalid catch"
	ErrMsgInvalidSession             = "invalid session"
	ErrMsgAccountNotFound            = "account not found"
	ErrMsgInvalidCatalog             = "invalid challenge catalog"
)

// Engine errors. Wrap with fmt.Errorf("%w: details", domain.ErrXxx) for context.
var (
	// ErrNotAuthenticated aborts before any side effect
	ErrNotAuthenticated = errors.New(ErrMsgNotAuthenticated)

	// ErrLookupFailure aborts the current pass; nothing is committed
	ErrLookupFailure = errors.New(ErrMsgLookupFailure)

	// ErrInvalidChallengeDefinition skips a single rule
	ErrInvalidChallengeDefinition = errors.New(ErrMsgInvalidChallengeDefinition)

	// ErrConcurrencyConflict is returned by versioned progress writes
	ErrConcurrencyConflict = errors.New(ErrMsgConcurrencyConflict)

	ErrInvalidCatch    = errors.New(ErrMsgInvalidCatch)
	ErrInvalidSession  = errors.New(ErrMsgInvalidSession)
	ErrAccountNotFound = errors.New(ErrMsgAccountNotFound)
	ErrInvalidCatalog  = errors.New(ErrMsgInvalidCatalog)
)
