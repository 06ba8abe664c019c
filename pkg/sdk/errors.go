package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

// ValidationMessage is the message carried by every normalized 422 error.
const ValidationMessage = "Validation error"

// APIError is the normalized shape of every failed call. Status is 0 when
// the request never produced an HTTP response.
type APIError struct {
	Status   int
	Message  string
	Errors   []schema.FieldError
	Original error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	if len(e.Errors) > 0 {
		parts := make([]string, 0, len(e.Errors))
		for _, fe := range e.Errors {
			parts = append(parts, fe.Field+": "+fe.Message)
		}
		return fmt.Sprintf("%d %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Original }

// FieldMessage returns the first message for a field, if any.
func (e *APIError) FieldMessage(field string) string {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// ResponseError keeps the raw body of a non-2xx response.
type ResponseError struct {
	Status int
	Body   []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, strings.TrimSpace(string(e.Body)))
}

type validationDetail struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

func normalizeError(status int, body []byte) *APIError {
	original := &ResponseError{Status: status, Body: body}

	var envelope map[string]json.RawMessage
	_ = json.Unmarshal(body, &envelope)

	if status == http.StatusUnprocessableEntity {
		var details []validationDetail
		if raw, ok := envelope["detail"]; ok && json.Unmarshal(raw, &details) == nil && len(details) > 0 {
			errs := make([]schema.FieldError, 0, len(details))
			for _, d := range details {
				errs = append(errs, schema.FieldError{Field: locField(d.Loc), Message: d.Msg})
			}
			return &APIError{Status: status, Message: ValidationMessage, Errors: errs, Original: original}
		}
	}

	return &APIError{Status: status, Message: errorText(status, envelope), Original: original}
}

// locField picks the field name out of a pydantic location tuple.
func locField(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	return fmt.Sprint(loc[len(loc)-1])
}

func errorText(status int, envelope map[string]json.RawMessage) string {
	for _, key := range []string{"detail", "message", "error"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "request failed"
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsUnauthorized reports a 401.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// IsConflict reports a 400 or 409, which create calls use for duplicates.
func IsConflict(err error) bool {
	return IsStatus(err, http.StatusBadRequest) || IsStatus(err, http.StatusConflict)
}

// IsValidation reports a normalized 422.
func IsValidation(err error) bool {
	return IsStatus(err, http.StatusUnprocessableEntity)
}

// IsNotFound reports a 404.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}
