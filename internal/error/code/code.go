package code

// HTTP status codes.
const (
	// StatusOK - 200: success.
	StatusOK = 200
	// StatusCreated - 201: resource created.
	StatusCreated = 201
	// StatusBadRequest - 400: malformed request.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: missing or invalid credentials.
	StatusUnauthorized = 401
	// StatusForbidden - 403: caller may not perform the operation.
	StatusForbidden = 403
	// StatusNotFound - 404: resource does not exist.
	StatusNotFound = 404
	// StatusConflict - 409: unique value already taken.
	StatusConflict = 409
	// StatusRequestEntityTooLarge - 413: batch or upload too large.
	StatusRequestEntityTooLarge = 413
	// StatusTooManyRequests - 429: rate limited.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: server error.
	StatusInternalServerError = 500
	// StatusServiceUnavailable - 503: a dependency is down.
	StatusServiceUnavailable = 503
)

// Generic error codes (100xxx).
const (
	// ErrSuccess - 200: success.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: unknown error.
	ErrUnknown
	// ErrBind - 400: request body could not be bound.
	ErrBind
	// ErrValidation - 400: request failed validation.
	ErrValidation
	// ErrTokenInvalid - 401: missing or invalid token.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: rate limited.
	ErrTooManyRequests
	// ErrForbidden - 403: caller lacks the required role.
	ErrForbidden
	// ErrInvalidCredentials - 401: wrong email or password.
	ErrInvalidCredentials
	// ErrServiceUnavailable - 503: a dependency is unreachable.
	ErrServiceUnavailable
)

// Contact and account error codes (101xxx).
const (
	// ErrContactNotFound - 404: contact does not exist.
	ErrContactNotFound int = iota + 101000
	// ErrContactConflict - 409: email or extension already in use.
	ErrContactConflict
	// ErrForbiddenField - 403: field reserved for administrators.
	ErrForbiddenField
	// ErrAccountNotFound - 404: account does not exist.
	ErrAccountNotFound
	// ErrLastAdministrator - 403: would remove the last administrator.
	ErrLastAdministrator
	// ErrInvalidRole - 400: unknown role.
	ErrInvalidRole
)

// Batch error codes (102xxx).
const (
	// ErrEmptyBatch - 400: batch has no items.
	ErrEmptyBatch int = iota + 102000
	// ErrBatchTooLarge - 413: batch exceeds the item limit.
	ErrBatchTooLarge
	// ErrImportFormat - 400: upload is not a readable CSV or XLSX file.
	ErrImportFormat
)

// Database error codes (105xxx).
const (
	// ErrDatabase - 500: database error.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: record does not exist.
	ErrRecordNotFound
)
