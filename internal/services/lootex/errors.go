package lootex

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for any non-2xx response. Body holds the parsed
// response body, which is what the child receives as the failure payload.
type APIError struct {
	StatusCode int
	Body       any
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lootex API returned status %d: %s", e.StatusCode, e.Message)
}

func newAPIError(status int, body any) *APIError {
	return &APIError{
		StatusCode: status,
		Body:       body,
		Message:    errorMessage(status, body),
	}
}

func errorMessage(status int, body any) string {
	switch v := body.(type) {
	case map[string]any:
		switch msg := v["message"].(type) {
		case string:
			if msg != "" {
				return msg
			}
		case nil:
		default:
			return fmt.Sprint(msg)
		}
		if e, ok := v["error"].(string); ok && e != "" {
			return e
		}
	case string:
		if v != "" {
			return v
		}
	}
	return http.StatusText(status)
}

// Message extracts the child-facing failure message from err. API errors
// yield the server's message; anything else yields err.Error().
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
