package response

import (
	"actrec-directory/internal/error/code"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every JSON reply. Successful replies carry
// data, failed replies carry code and error.
type Response struct {
	Code  int         `json:"code,omitempty"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// Success writes a 200 reply
func Success(c *gin.Context, data interface{}) {
	c.JSON(code.StatusOK, gin.H{"data": data})
}

// Created writes a 201 reply
func Created(c *gin.Context, data interface{}) {
	c.JSON(code.StatusCreated, gin.H{"data": data})
}

// Fail writes the default message of errorCode
func Fail(c *gin.Context, errorCode int) {
	FailWithMessage(c, errorCode, code.GetMessage(errorCode))
}

// FailWithMessage writes a failure with a custom message
func FailWithMessage(c *gin.Context, errorCode int, message string) {
	c.JSON(code.GetStatus(errorCode), Response{
		Code:  errorCode,
		Error: message,
	})
}

// AbortWithMessage writes a failure and stops the handler chain
func AbortWithMessage(c *gin.Context, errorCode int, message string) {
	c.AbortWithStatusJSON(code.GetStatus(errorCode), Response{
		Code:  errorCode,
		Error: message,
	})
}

// ParamError writes a validation failure
func ParamError(c *gin.Context, message string) {
	if message == "" {
		message = code.GetMessage(code.ErrValidation)
	}
	FailWithMessage(c, code.ErrValidation, message)
}

// Unauthorized writes a 401 reply
func Unauthorized(c *gin.Context) {
	Fail(c, code.ErrTokenInvalid)
}
