package errors

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
)

// analyzes an error and returns its diagnostic category
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return CategoryNetwork
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CategoryNetwork
	}

	// fallback to string matching for unknown error types
	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline"):
		return CategoryTimeout
	case strings.Contains(errMsg, "not found"):
		return CategoryNotFound
	case strings.Contains(errMsg, "redis") || strings.Contains(errMsg, "postgres") ||
		strings.Contains(errMsg, "storage"):
		return CategoryStorage
	case strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network") ||
		strings.Contains(errMsg, "dial"):
		return CategoryNetwork
	case strings.Contains(errMsg, "validation") || strings.Contains(errMsg, "invalid") ||
		strings.Contains(errMsg, "required"):
		return CategoryValidation
	case strings.Contains(errMsg, "unauthorized") || strings.Contains(errMsg, "forbidden") ||
		strings.Contains(errMsg, "auth"):
		return CategoryAuth
	}

	return CategoryUnknown
}
