package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"codeberg.org/afewwords/companion/internal/errors"
	"codeberg.org/afewwords/companion/internal/logger"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// at least one non-space character
	v.RegisterValidation("wordlike", func(fl validator.FieldLevel) bool { //nolint:errcheck,gosec // tag name is static
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// checks a word before it is sent: 1..100 chars, not blank, url when set
func ValidateWord(entry WordEntry) error {
	if err := validate.Struct(entry); err != nil {
		return fmt.Errorf("invalid word: %w", err)
	}

	return nil
}

// parses FAILURE_POLICY; anything unknown falls back to log
func ParseFailurePolicy(s string) FailurePolicy {
	if FailurePolicy(strings.ToLower(strings.TrimSpace(s))) == PolicyReport {
		return PolicyReport
	}

	return PolicyLog
}

// logs a failed operation and returns the error only when it should be shown
func (p FailurePolicy) Handle(op string, err error) error {
	if err == nil {
		return nil
	}

	logger.ErrorErr(err, "operation failed",
		"op", op,
		"kind", string(KindOf(err)),
		"category", string(errors.Classify(err)),
	)

	if p == PolicyReport {
		return err
	}

	return nil
}

const maxErrorTextRunes = 200

// extracts a readable message from an error body
func errorMessage(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		if resp.Message != "" {
			return errors.Sanitize(resp.Message)
		}
		if resp.Error != "" {
			return errors.Sanitize(resp.Error)
		}
	}

	text := strings.TrimSpace(string(body))
	if runes := []rune(text); len(runes) > maxErrorTextRunes {
		text = string(runes[:maxErrorTextRunes])
	}

	return errors.Sanitize(text)
}
