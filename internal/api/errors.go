package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound matches any *Error with status 404.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized matches any *Error with status 401.
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a failure reported by the server.
type Error struct {
	StatusCode int
	// Message is the server's detail string, the compacted error body when
	// detail is not a string, or the status text when the body is not JSON.
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

func errorFromResponse(resp *http.Response) *Error {
	e := &Error{StatusCode: resp.StatusCode, Message: statusText(resp)}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return e
	}
	var body any
	if err := json.Unmarshal(b, &body); err != nil {
		return e
	}

	if obj, ok := body.(map[string]any); ok {
		if detail, ok := obj["detail"].(string); ok {
			e.Message = detail
			return e
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, b); err == nil {
		e.Message = compact.String()
	}
	return e
}

// statusText returns the reason phrase the server sent, e.g. "Not Found".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// ValidationError is a local precondition failure; no request was sent.
type ValidationError struct {
	Op     string
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Op + ": " + strings.Join(e.Fields, "; ")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// check validates v and converts failures to *ValidationError.
func check(op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ve := &ValidationError{Op: op}
	for _, fe := range fieldErrs {
		ve.Fields = append(ve.Fields, describe(fe))
	}
	return ve
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "url":
		return fe.Field() + " must be a URL"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	}
	return fe.Field() + " failed " + fe.Tag()
}

// requireID rejects blank identifiers before they become malformed paths.
func requireID(op, name, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Op: op, Fields: []string{name + " is required"}}
	}
	return nil
}
