package code

var codeMessageMap = map[int]string{
	// generic
	ErrSuccess:            "success",
	ErrUnknown:            "unknown error",
	ErrBind:               "invalid request body",
	ErrValidation:         "request validation failed",
	ErrTokenInvalid:       "missing or invalid authentication token",
	ErrTooManyRequests:    "too many requests, please slow down",
	ErrForbidden:          "insufficient permissions",
	ErrInvalidCredentials: "invalid email or password",
	ErrServiceUnavailable: "service unavailable",

	// contacts and accounts
	ErrContactNotFound:   "contact not found",
	ErrContactConflict:   "email or extension already in use",
	ErrForbiddenField:    "field may only be changed by an administrator",
	ErrAccountNotFound:   "account not found",
	ErrLastAdministrator: "cannot remove the last administrator",
	ErrInvalidRole:       "role must be admin or regular",

	// batches
	ErrEmptyBatch:    "batch must contain at least one item",
	ErrBatchTooLarge: "batch exceeds the maximum number of items",
	ErrImportFormat:  "unsupported or unreadable import file",

	// database
	ErrDatabase:       "database error",
	ErrRecordNotFound: "record not found",
}

var codeStatusMap = map[int]int{
	// generic
	ErrSuccess:            StatusOK,
	ErrUnknown:            StatusInternalServerError,
	ErrBind:               StatusBadRequest,
	ErrValidation:         StatusBadRequest,
	ErrTokenInvalid:       StatusUnauthorized,
	ErrTooManyRequests:    StatusTooManyRequests,
	ErrForbidden:          StatusForbidden,
	ErrInvalidCredentials: StatusUnauthorized,
	ErrServiceUnavailable: StatusServiceUnavailable,

	// contacts and accounts
	ErrContactNotFound:   StatusNotFound,
	ErrContactConflict:   StatusConflict,
	ErrForbiddenField:    StatusForbidden,
	ErrAccountNotFound:   StatusNotFound,
	ErrLastAdministrator: StatusForbidden,
	ErrInvalidRole:       StatusBadRequest,

	// batches
	ErrEmptyBatch:    StatusBadRequest,
	ErrBatchTooLarge: StatusRequestEntityTooLarge,
	ErrImportFormat:  StatusBadRequest,

	// database
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,
}

// GetMessage returns the default message of an error code
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "unknown error"
}

// GetStatus returns the HTTP status of an error code
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
