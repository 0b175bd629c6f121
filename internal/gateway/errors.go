package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel conditions.  Every non-2xx response is returned as an *APIError
// whose Kind is one of these, so callers match with errors.Is and read the
// backend message with Detail.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation failed")
	ErrBackend            = errors.New("backend error")
	// ErrUnavailable wraps transport failures: no HTTP response was received.
	ErrUnavailable = errors.New("backend unavailable")
)

// APIError is a rejected request.  Detail carries the backend's own
// message when it sent one.
type APIError struct {
	Status int
	Detail string
	Kind   error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Kind, e.Status)
}

func (e *APIError) Unwrap() error { return e.Kind }

// kindForStatus is the default classification; individual operations
// may reclassify (login, product delete).
func kindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return ErrBackend
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{Status: status, Detail: parseDetail(body), Kind: kindForStatus(status)}
}

// reclassify returns err with its Kind replaced when it is an *APIError
// with one of the given statuses.
func reclassify(err error, kind error, statuses ...int) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	for _, s := range statuses {
		if apiErr.Status == s {
			return &APIError{Status: apiErr.Status, Detail: apiErr.Detail, Kind: kind}
		}
	}
	return err
}

// parseDetail pulls the message out of a FastAPI-style error body:
// {"detail": "text"} or {"detail": [{"msg": "..."}, ...]}.
func parseDetail(body []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(env.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// Detail returns the backend message carried by err, or fallback.
func Detail(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// IsAuthFailure reports whether err is a 401/403 that tore the session down.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}
