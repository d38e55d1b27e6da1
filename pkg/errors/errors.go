package errors

import (
	"fmt"
	"sort"
)

// FieldViolation describes a single failed validation rule.
type FieldViolation struct {
	Field   string
	Message string
}

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Message    string
	Violations []FieldViolation
}

// NewValidationError creates a new validation error from one or more violations
func NewValidationError(violations ...FieldViolation) *ValidationError {
	return &ValidationError{
		Message:    "Validation failed",
		Violations: violations,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	fields := e.FieldErrors()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msg := "validation failed:"
	for i, k := range keys {
		if i > 0 {
			msg += ","
		}
		msg += fmt.Sprintf(" %s - %s", k, fields[k])
	}
	return msg
}

// FieldErrors returns the violations keyed by field name.
// When a field has several violations the first one wins.
func (e *ValidationError) FieldErrors() map[string]string {
	out := make(map[string]string, len(e.Violations))
	for _, v := range e.Violations {
		if _, ok := out[v.Field]; !ok {
			out[v.Field] = v.Message
		}
	}
	return out
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, id, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
		Message:  message,
	}
}

// NewUserNotFoundError reports that no user is stored under id.
func NewUserNotFoundError(id string) *NotFoundError {
	return NewNotFoundError("user", id, "User not found with id: "+id)
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// AlreadyExistsError represents a resource already exists error
type AlreadyExistsError struct {
	Resource string
	Message  string
}

// NewDuplicateEmailError reports an email that is already taken by another user.
func NewDuplicateEmailError(email string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Resource: "email",
		Message:  "Email already exists: " + email,
	}
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// MalformedRequestError is raised by the transport layer before a request
// reaches validation: unreadable bodies and unsupported content types.
type MalformedRequestError struct {
	ContentType string
	Unsupported bool
	Err         error
}

// NewMalformedBodyError wraps a body decoding failure.
func NewMalformedBodyError(err error) *MalformedRequestError {
	return &MalformedRequestError{Err: err}
}

// NewUnsupportedMediaTypeError reports a request body in a format other than JSON.
func NewUnsupportedMediaTypeError(contentType string) *MalformedRequestError {
	return &MalformedRequestError{ContentType: contentType, Unsupported: true}
}

// Error implements the error interface
func (e *MalformedRequestError) Error() string {
	if e.Unsupported {
		return fmt.Sprintf("Content-Type '%s' is not supported. Use 'application/json'.", e.ContentType)
	}
	return "Malformed JSON request. Please check your request body."
}

// Unwrap returns the wrapped error
func (e *MalformedRequestError) Unwrap() error {
	return e.Err
}

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}
