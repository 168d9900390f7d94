package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the uniform response envelope
type APIResponse struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *AppError      `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// SuccessResponse writes a 200 response with the given payload
func SuccessResponse(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// CreatedResponse writes a 201 response with the given payload
func CreatedResponse(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// ErrorResponse writes an error response with a bare message
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &AppError{Code: CodeInternal, Message: message},
	})
}

// AppErrorResponse writes a structured error response
func AppErrorResponse(c *gin.Context, err *AppError) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, APIResponse{Success: false, Error: err})
}

// HandleServiceError translates a service error into an HTTP response
func HandleServiceError(c *gin.Context, err error, fallback string) {
	if appErr, ok := AsAppError(err); ok {
		AppErrorResponse(c, appErr)
		return
	}
	ErrorResponse(c, http.StatusInternalServerError, fallback)
}
