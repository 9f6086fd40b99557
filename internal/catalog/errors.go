package catalog

import "errors"

// Sentinel errors for catalog operations.
var (
	ErrMalformedIdentifier = errors.New("malformed identifier")
	ErrUnknownGroup        = errors.New("unknown group")
	ErrUnknownSubgroup     = errors.New("unknown subgroup")
	ErrSequenceExhausted   = errors.New("identifier sequence exhausted")
	ErrIDMismatch          = errors.New("identifier prefix does not match group and subgroup")
	ErrInvalidKind         = errors.New("invalid question kind")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrEmptyBody           = errors.New("question text cannot be empty")
)
