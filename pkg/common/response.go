package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the standard JSON envelope
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError carries error details in responses
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
}

// SuccessResponse writes a successful JSON response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// CreatedResponse writes a 201 JSON response
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// ErrorResponse writes an error JSON response with the given status
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: CodeInternal, Message: message},
	})
}

// AppErrorResponse writes an AppError with its mapped status code
func AppErrorResponse(c *gin.Context, err *AppError) {
	apiErr := &APIError{Code: err.Code, Message: err.Message}
	if err.RetryAfter > 0 {
		apiErr.RetryAfter = int(err.RetryAfter.Seconds())
	}
	c.JSON(err.HTTPStatus(), APIResponse{Success: false, Error: apiErr})
}

// HandleServiceError routes a service error to the right response shape
func HandleServiceError(c *gin.Context, err error, fallback string) {
	if appErr, ok := AsAppError(err); ok {
		AppErrorResponse(c, appErr)
		return
	}
	ErrorResponse(c, http.StatusInternalServerError, fallback)
}
