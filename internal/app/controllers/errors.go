package controllers

import (
	"errors"

	"actrec-directory/internal/domain/services"
	"actrec-directory/internal/error/code"
	"actrec-directory/internal/error/response"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code  int    `json:"code" example:"101004"`
	Error string `json:"error" example:"cannot remove the last administrator"`
}

var errorCodes = []struct {
	err  error
	code int
}{
	{services.ErrContactNotFound, code.ErrContactNotFound},
	{services.ErrAccountNotFound, code.ErrAccountNotFound},
	{services.ErrLastAdministrator, code.ErrLastAdministrator},
	{services.ErrForbiddenField, code.ErrForbiddenField},
	{services.ErrForbidden, code.ErrForbidden},
	{services.ErrConflict, code.ErrContactConflict},
	{services.ErrEmptyBatch, code.ErrEmptyBatch},
	{services.ErrBatchTooLarge, code.ErrBatchTooLarge},
	{services.ErrInvalidRole, code.ErrInvalidRole},
	{services.ErrInvalidField, code.ErrValidation},
	{services.ErrEmptyUpdate, code.ErrValidation},
	{services.ErrMissingFields, code.ErrValidation},
	{services.ErrInvalidCredentials, code.ErrInvalidCredentials},
	{services.ErrInvalidToken, code.ErrTokenInvalid},
	{services.ErrUnsupportedFormat, code.ErrImportFormat},
}

// errorCode classifies a service error
func errorCode(err error) int {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return code.ErrDatabase
}

func failWithError(c *gin.Context, err error) {
	response.FailWithMessage(c, errorCode(err), err.Error())
}
