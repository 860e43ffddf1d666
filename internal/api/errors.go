package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed API call by how the user should react to it.
type Kind int

const (
	// KindUnknown is an unclassified failure.
	KindUnknown Kind = iota
	// KindNetwork means the server could not be reached.
	KindNetwork
	// KindServer covers 5xx responses and malformed bodies.
	KindServer
	// KindAuth is a missing, expired or rejected token (401).
	KindAuth
	// KindPermission is a 403.
	KindPermission
	// KindValidation is a rejected request (400/422).
	KindValidation
	// KindNotFound is a 404.
	KindNotFound
	// KindConflict is a 409.
	KindConflict
	// KindRateLimited is a 429.
	KindRateLimited
	// KindCanceled means the caller gave up on the request.
	KindCanceled
)

// String returns the kind name used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindAuth:
		return "auth"
	case KindPermission:
		return "permission"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is a failed API call.
type Error struct {
	Kind   Kind
	Status int
	// Message is the server supplied explanation, if any.
	Message   string
	Method    string
	Path      string
	RequestID string
	Err       error
}

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder

	if e.Method != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.Path)
	}

	b.WriteString(e.Kind.String())

	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// UserMessage is the text shown next to the failed action.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindAuth:
		return "authentication failed"
	case KindPermission:
		return "permission denied"
	case KindValidation, KindConflict:
		if e.Message != "" {
			return e.Message
		}

		return "the request was rejected"
	case KindNotFound:
		return "not found"
	case KindRateLimited:
		return "too many requests, try again shortly"
	case KindCanceled:
		return "request canceled"
	case KindNetwork:
		return "could not reach the server"
	case KindServer:
		if e.Message != "" {
			return "server error: " + e.Message
		}

		return "server error"
	default:
		return "request failed"
	}
}

// Retryable reports whether repeating the same call may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindServer, KindRateLimited, KindUnknown:
		return true
	default:
		return false
	}
}

// KindOf returns the Kind of an *Error in err's chain, KindUnknown otherwise.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	return KindUnknown
}

// UserMessage returns the user facing text for any error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}

	return err.Error()
}

// IsRetryable reports whether err is worth a retry.
func IsRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}

	return err != nil
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindPermission
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= http.StatusInternalServerError:
		return KindServer
	case status >= http.StatusBadRequest:
		return KindValidation
	default:
		return KindUnknown
	}
}

// errorMessage pulls a human readable message out of an error body. It knows
// {"message": "..."}, {"message": ["a", "b"]}, {"error": "..."},
// {"error": {"message": "..."}} and {"errors": [...] | {"field": [...]}}.
func errorMessage(body []byte) string {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}

	for _, key := range []string{"message", "error", "errors", "detail"} {
		if raw, ok := doc[key]; ok {
			if msg := messageText(raw); msg != "" {
				return msg
			}
		}
	}

	return ""
}

func messageText(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}

	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if msg := messageText(item); msg != "" {
				parts = append(parts, msg)
			}
		}

		return strings.Join(parts, "; ")
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) == nil {
		if msg, ok := obj["message"]; ok {
			return messageText(msg)
		}

		fields := sortedKeys(obj)
		parts := make([]string, 0, len(fields))

		for _, field := range fields {
			if msg := messageText(obj[field]); msg != "" {
				parts = append(parts, field+": "+msg)
			}
		}

		return strings.Join(parts, "; ")
	}

	return ""
}
