package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryTransport     ErrorCategory = "transport"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryResolution    ErrorCategory = "resolution"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Transport errors
	CodeEngineNotRunning ErrorCode = "engine_not_running"
	CodeEngineBusy       ErrorCode = "engine_busy"
	CodeEngineTimeout    ErrorCode = "engine_timeout"
	CodeConnectionFailed ErrorCode = "connection_failed"

	// Parse errors
	CodeInvalidResponse ErrorCode = "invalid_response"
	CodeRecordNotFound  ErrorCode = "record_not_found"
	CodeMissingField    ErrorCode = "missing_field"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeRequiredField ErrorCode = "required_field"
	CodeInvalidValue  ErrorCode = "invalid_value"

	// Resolution errors
	CodePartyNotFound  ErrorCode = "party_not_found"
	CodeAmbiguousParty ErrorCode = "ambiguous_party"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
	CodeUnknownAction   ErrorCode = "unknown_action"
)

// BridgeError is the base error type for all application errors
type BridgeError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *BridgeError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *BridgeError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *BridgeError) GetExitCode() int {
	switch e.Category {
	case CategoryTransport:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryResolution:
		return 5
	case CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *BridgeError) WithContext(key string, value interface{}) *BridgeError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *BridgeError) WithSuggestion(suggestion string) *BridgeError {
	e.Suggestion = suggestion
	return e
}

// New creates a new BridgeError
func New(category ErrorCategory, code ErrorCode, message string) *BridgeError {
	return &BridgeError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with BridgeError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *BridgeError {
	if err == nil {
		return nil
	}

	return &BridgeError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// TransportError creates a transport-related error for the given endpoint.
// The code selects the user-facing message: the three engine states of the
// error contract (not running, busy, slow) plus a generic fallback.
func TransportError(code ErrorCode, endpoint string, err error) *BridgeError {
	var message string
	var suggestion string

	switch code {
	case CodeEngineNotRunning:
		message = "the accounting engine is not running"
		suggestion = "start Tally and load your company, then try again"
	case CodeEngineBusy:
		message = "the accounting engine is running but not accepting requests"
		suggestion = "restart Tally's local XML server and try again"
	case CodeEngineTimeout:
		message = fmt.Sprintf("the accounting engine took too long to respond at %s", endpoint)
		suggestion = "retry the request, or restart Tally if this keeps happening"
	default:
		message = fmt.Sprintf("could not reach the accounting engine at %s", endpoint)
		suggestion = "check that Tally is running with its XML server enabled"
	}

	var result *BridgeError
	if err != nil {
		result = Wrap(err, CategoryTransport, code, message)
	} else {
		result = New(CategoryTransport, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("endpoint", endpoint)
}

// ParseError creates a parsing-related error for an engine response
func ParseError(code ErrorCode, record string, detail string, err error) *BridgeError {
	var message string
	var suggestion string

	switch code {
	case CodeRecordNotFound:
		message = fmt.Sprintf("%s not found: %s", record, detail)
		suggestion = "check the name against the engine's master list"
	case CodeMissingField:
		message = fmt.Sprintf("response for %s is missing field %s", record, detail)
		suggestion = "the engine version may not export this field; verify the report in Tally"
	case CodeInvalidResponse:
		message = fmt.Sprintf("unexpected response while reading %s: %s", record, detail)
		suggestion = "verify the company is loaded and the engine version is supported"
	default:
		message = fmt.Sprintf("parse error while reading %s", record)
		suggestion = "verify the engine response format"
	}

	var result *BridgeError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("record", record).
		WithContext("detail", detail)
}

// ValidationError creates a validation-related error for caller-supplied input
func ValidationError(code ErrorCode, field string, value interface{}) *BridgeError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "amounts must be positive decimal numbers (e.g. '12500.50')"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use a date like 2024-01-31, 31-01-2024 or 20240131"
	case CodeRequiredField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("invalid value in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	return New(CategoryValidation, code, message).
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ResolutionError creates an entity-resolution error
func ResolutionError(code ErrorCode, query string) *BridgeError {
	var message string
	var suggestion string

	switch code {
	case CodePartyNotFound:
		message = fmt.Sprintf("no ledger matches '%s'", query)
		suggestion = "check the spelling, or try a shorter part of the name"
	case CodeAmbiguousParty:
		message = fmt.Sprintf("more than one ledger matches '%s'", query)
		suggestion = "pick one of the listed candidates and repeat the request with the full name"
	default:
		message = fmt.Sprintf("could not resolve '%s'", query)
		suggestion = "try the exact ledger name as it appears in the engine"
	}

	return New(CategoryResolution, code, message).
		WithSuggestion(suggestion).
		WithContext("query", query)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *BridgeError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *BridgeError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *BridgeError {
	var message string
	var suggestion string

	switch code {
	case CodeUnknownAction:
		message = fmt.Sprintf("unknown action '%s'", operation)
		suggestion = "check the list of supported actions"
	default:
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	}

	var result *BridgeError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ValidationErrors collects every problem found in one piece of caller input
// so all of them can be reported together instead of failing on the first.
type ValidationErrors struct {
	Errors []*BridgeError `json:"errors"`
}

// NewValidationErrors creates an empty collector
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add appends a validation error to the collection; nil errors are ignored
func (ve *ValidationErrors) Add(err *BridgeError) {
	if err == nil {
		return
	}
	ve.Errors = append(ve.Errors, err)
}

// HasErrors reports whether any validation error was collected
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// Error returns a formatted message listing every collected problem
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "no errors"
	}

	if len(ve.Errors) == 1 {
		return ve.Errors[0].Error()
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("%d validation errors:", len(ve.Errors)))
	for i, err := range ve.Errors {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, err.Message))
	}
	return strings.Join(lines, "\n")
}

// Utility functions

// IsBridgeError checks if an error is a BridgeError
func IsBridgeError(err error) bool {
	_, ok := err.(*BridgeError)
	return ok
}

// AsBridgeError extracts a BridgeError from an error chain
func AsBridgeError(err error) (*BridgeError, bool) {
	var bridgeErr *BridgeError
	if errors.As(err, &bridgeErr) {
		return bridgeErr, true
	}
	return nil, false
}

// HasCode checks whether an error chain contains a BridgeError with the given code
func HasCode(err error, code ErrorCode) bool {
	bridgeErr, ok := AsBridgeError(err)
	return ok && bridgeErr.Code == code
}

// WrapIfNeeded wraps an error if it's not already a BridgeError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *BridgeError {
	if err == nil {
		return nil
	}

	if bridgeErr, ok := AsBridgeError(err); ok {
		return bridgeErr
	}

	return Wrap(err, category, code, message)
}
