package services

import "errors"

var (
	ErrContactNotFound    = errors.New("contact not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrLastAdministrator  = errors.New("cannot remove the last administrator")
	ErrForbidden          = errors.New("operation not permitted for this caller")
	ErrForbiddenField     = errors.New("field may only be changed by an administrator")
	ErrInvalidField       = errors.New("invalid contact field")
	ErrEmptyUpdate        = errors.New("no fields to update")
	ErrConflict           = errors.New("email or extension already in use")
	ErrEmptyBatch         = errors.New("batch must contain at least one item")
	ErrBatchTooLarge      = errors.New("batch exceeds the maximum number of items")
	ErrInvalidRole        = errors.New("role must be admin or regular")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrMissingFields      = errors.New("missing required fields")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
)
