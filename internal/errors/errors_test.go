package errors

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryUnknown},
		{"deadline", fmt.Errorf("refresh: %w", context.DeadlineExceeded), CategoryTimeout},
		{"canceled", context.Canceled, CategoryTimeout},
		{"url error", &url.Error{Op: "Get", URL: "https://api.example", Err: fmt.Errorf("eof")}, CategoryNetwork},
		{"op error", &net.OpError{Op: "dial", Net: "tcp", Err: fmt.Errorf("refused")}, CategoryNetwork},
		{"redis", fmt.Errorf("redis: nil"), CategoryStorage},
		{"not found", fmt.Errorf("word not found"), CategoryNotFound},
		{"invalid", fmt.Errorf("invalid token"), CategoryValidation},
		{"unauthorized", fmt.Errorf("unauthorized"), CategoryAuth},
		{"other", fmt.Errorf("boom"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestSanitize(t *testing.T) {
	t.Run("development keeps the message", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "development")
		assert.Equal(t, "dial tcp 10.0.0.1:5432: connection refused", Sanitize("dial tcp 10.0.0.1:5432: connection refused"))
	})

	t.Run("production hides details", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")

		assert.Equal(t, "connection error occurred", Sanitize("dial tcp 10.0.0.1:5432: connection refused"))
		assert.Equal(t, "request timed out", Sanitize("i/o timeout"))
		assert.Equal(t, "permission denied", Sanitize("Unauthorized"))
		assert.Equal(t, "resource not found", Sanitize("word not found"))
		assert.Equal(t, "an error occurred", Sanitize("boom"))
	})
}

func TestResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		write   func(c *gin.Context)
		status  int
		code    string
		message string
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "", nil) }, http.StatusBadRequest, CodeBadRequest, "invalid request"},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "origin not allowed") }, http.StatusForbidden, CodeForbidden, "origin not allowed"},
		{"too many", func(c *gin.Context) { TooManyRequests(c, "") }, http.StatusTooManyRequests, CodeTooManyRequests, "too many requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			tt.write(c)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"error":%q,"message":%q}`, tt.code, tt.message), w.Body.String())
		})
	}
}
