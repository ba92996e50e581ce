package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeGenerator  ErrorType = "generator"
	ErrorTypeStore      ErrorType = "store"
	ErrorTypeProbe      ErrorType = "probe"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// JSXLiveError is a structured error type with context.
type JSXLiveError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	Recoverable bool
}

// Error implements the error interface.
func (e *JSXLiveError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *JSXLiveError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *JSXLiveError) Is(target error) bool {
	var t *JSXLiveError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *JSXLiveError) WithContext(key string, value interface{}) *JSXLiveError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithComponent adds component context.
func (e *JSXLiveError) WithComponent(component string) *JSXLiveError {
	e.Component = component

	return e
}

// HTTPStatus maps the error type to the status code the server answers with.
func (e *JSXLiveError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeGenerator, ErrorTypeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *JSXLiveError {
	return &JSXLiveError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(code, message string) *JSXLiveError {
	return &JSXLiveError{
		Type:        ErrorTypeNotFound,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewConflictError creates an error for an operation the current state does not allow.
func NewConflictError(code, message string) *JSXLiveError {
	return &JSXLiveError{
		Type:        ErrorTypeConflict,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *JSXLiveError {
	return &JSXLiveError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewGeneratorError creates an error for a failed model call.
func NewGeneratorError(code, message string, cause error) *JSXLiveError {
	return &JSXLiveError{
		Type:        ErrorTypeGenerator,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewStoreError creates a session store error.
func NewStoreError(code, message string, cause error) *JSXLiveError {
	return &JSXLiveError{
		Type:        ErrorTypeStore,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewProbeError creates a headless browser probe error.
func NewProbeError(code, message string, cause error) *JSXLiveError {
	return &JSXLiveError{
		Type:        ErrorTypeProbe,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *JSXLiveError {
	return &JSXLiveError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *JSXLiveError {
	return &JSXLiveError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Error recovery and handling utilities

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var je *JSXLiveError
	if errors.As(err, &je) {
		return je.Recoverable
	}

	return false
}

// TypeOf returns the category of err, or ErrorTypeInternal for foreign errors.
func TypeOf(err error) ErrorType {
	var je *JSXLiveError
	if errors.As(err, &je) {
		return je.Type
	}

	return ErrorTypeInternal
}

// HTTPStatus returns the status code for any error.
func HTTPStatus(err error) int {
	var je *JSXLiveError
	if errors.As(err, &je) {
		return je.HTTPStatus()
	}

	return http.StatusInternalServerError
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level matching its category.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var je *JSXLiveError
	if !errors.As(err, &je) {
		h.logger.Error(ctx, err, "Unhandled error occurred")

		return
	}

	if je.Recoverable {
		h.logger.Warn(ctx, err, "Recoverable error occurred",
			"type", je.Type,
			"code", je.Code,
			"component", je.Component)

		return
	}

	h.logger.Error(ctx, err, "Error occurred",
		"type", je.Type,
		"code", je.Code,
		"component", je.Component)
}

// Common error codes.
const (
	ErrCodeInvalidRequest    = "ERR_INVALID_REQUEST"
	ErrCodeInvalidMessage    = "ERR_INVALID_MESSAGE"
	ErrCodeNoSelection       = "ERR_NO_SELECTION"
	ErrCodeNoClassName       = "ERR_NO_CLASS_NAME"
	ErrCodeSessionNotFound   = "ERR_SESSION_NOT_FOUND"
	ErrCodeGeneratorDisabled = "ERR_GENERATOR_DISABLED"
	ErrCodeGeneratorFailed   = "ERR_GENERATOR_FAILED"
	ErrCodeEmptyResponse     = "ERR_EMPTY_RESPONSE"
	ErrCodeStoreFailed       = "ERR_STORE_FAILED"
	ErrCodeProbeFailed       = "ERR_PROBE_FAILED"
	ErrCodeProbeTimeout      = "ERR_PROBE_TIMEOUT"
	ErrCodeFileNotFound      = "ERR_FILE_NOT_FOUND"
	ErrCodeRuleNotFound      = "ERR_RULE_NOT_FOUND"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodeBridgeClosed      = "ERR_BRIDGE_CLOSED"
	ErrCodeInternalError     = "ERR_INTERNAL"
	ErrCodeValidationFailed  = "ERR_VALIDATION_FAILED"
)

// FieldValidationError describes one invalid configuration or request field.
type FieldValidationError struct {
	FieldName    string
	FieldValue   interface{}
	ErrorMessage string
	HelpText     []string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", fve.FieldName, fve.ErrorMessage)
}

// newFieldValidationError creates a new field validation error.
func newFieldValidationError(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) *FieldValidationError {
	return &FieldValidationError{
		FieldName:    field,
		FieldValue:   value,
		ErrorMessage: message,
		HelpText:     suggestions,
	}
}

// ValidationErrorCollection represents a collection of validation errors.
type ValidationErrorCollection struct {
	Errors []*FieldValidationError
}

// Error implements the error interface.
func (vec *ValidationErrorCollection) Error() string {
	if len(vec.Errors) == 0 {
		return "no validation errors"
	}
	if len(vec.Errors) == 1 {
		return vec.Errors[0].Error()
	}

	return fmt.Sprintf("validation failed with %d errors", len(vec.Errors))
}

// AddField adds a field validation error to the collection.
func (vec *ValidationErrorCollection) AddField(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) {
	vec.Errors = append(vec.Errors, newFieldValidationError(field, value, message, suggestions...))
}

// HasErrors returns true if there are any validation errors.
func (vec *ValidationErrorCollection) HasErrors() bool {
	return len(vec.Errors) > 0
}

// ToJSXLiveError folds the collection into one validation error.
func (vec *ValidationErrorCollection) ToJSXLiveError() *JSXLiveError {
	if !vec.HasErrors() {
		return nil
	}

	var messages []string
	context := make(map[string]interface{})

	for _, err := range vec.Errors {
		messages = append(messages, err.Error())
		context[err.FieldName] = map[string]interface{}{
			"value":       err.FieldValue,
			"suggestions": err.HelpText,
		}
	}

	return &JSXLiveError{
		Type:        ErrorTypeValidation,
		Code:        ErrCodeValidationFailed,
		Message:     strings.Join(messages, "; "),
		Context:     context,
		Recoverable: true,
	}
}
