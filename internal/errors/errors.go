package errors

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// Error Handling Guidelines:
//
// For relay HTTP/websocket handlers:
//   - Use errors.BadRequest(), errors.Forbidden(), etc. before the upgrade
//     These functions handle both logging and the HTTP response
//   - After the upgrade, use logger.ErrorErr() + a bus error frame
//
// For stores, clients and flows:
//   - Return wrapped errors with context using fmt.Errorf("context: %w", err)
//   - Let the caller decide whether to log, report or drop
//   - Do not log errors in library code (avoid double logging)

// returns a 400 bad request error
func BadRequest(c *gin.Context, message string, err error) {
	if message == "" {
		message = "invalid request"
	}

	response := ErrorResponse{
		Error:   CodeBadRequest,
		Message: message,
	}

	if err != nil {
		response.Details = sanitizeError(err)
	}

	c.JSON(http.StatusBadRequest, response)
}

// returns a 403 forbidden error
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "permission denied"
	}

	c.JSON(http.StatusForbidden, ErrorResponse{
		Error:   CodeForbidden,
		Message: message,
	})
}

// returns a 429 too many requests error
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "too many requests"
	}

	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:   CodeTooManyRequests,
		Message: message,
	})
}

// sanitizes error messages for production
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}

	return Sanitize(err.Error())
}

// sanitizes a raw error string for production
func Sanitize(errMsg string) string {
	if os.Getenv("ENVIRONMENT") != "production" {
		return errMsg
	}

	lower := strings.ToLower(errMsg)

	if strings.Contains(lower, "connection") || strings.Contains(lower, "network") {
		return "connection error occurred"
	}

	if strings.Contains(lower, "timeout") {
		return "request timed out"
	}

	if strings.Contains(lower, "permission") || strings.Contains(lower, "unauthorized") {
		return "permission denied"
	}

	if strings.Contains(lower, "not found") {
		return "resource not found"
	}

	return "an error occurred"
}
