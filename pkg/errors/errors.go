// Package errors defines the categorized error type shared by the ingestion
// pipeline, its loaders and the CLI.
//
// Per-message failures (a message that cannot be normalized, an account that
// cannot be resolved, an oracle that times out) are local to one message and
// are carried on the message outcome. Only source and configuration errors are
// meant to abort a run.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryMessage       ErrorCategory = "message"
	CategoryExtraction    ErrorCategory = "extraction"
	CategoryDedup         ErrorCategory = "dedup"
	CategoryResolution    ErrorCategory = "resolution"
	CategoryEnrichment    ErrorCategory = "enrichment"
	CategoryStorage       ErrorCategory = "storage"
	CategorySource        ErrorCategory = "source"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryValidation    ErrorCategory = "validation"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Message errors
	CodeEmptyMessage   ErrorCode = "empty_message"
	CodeNoSenderRule   ErrorCode = "no_sender_rule"
	CodeMissingAmount  ErrorCode = "missing_amount"
	CodeInvalidPayload ErrorCode = "invalid_payload"

	// Extraction errors
	CodeInvalidRule ErrorCode = "invalid_rule"

	// Dedup errors
	CodeLookupFailed ErrorCode = "lookup_failed"

	// Resolution errors
	CodeAccountUnresolved ErrorCode = "account_unresolved"
	CodeEmptyRoster       ErrorCode = "empty_roster"

	// Enrichment errors
	CodeOracleDisabled    ErrorCode = "oracle_disabled"
	CodeOracleUnavailable ErrorCode = "oracle_unavailable"
	CodeMalformedResponse ErrorCode = "malformed_response"

	// Storage errors
	CodeSaveFailed      ErrorCode = "save_failed"
	CodeBackfillFailed  ErrorCode = "backfill_failed"
	CodeDuplicateRecord ErrorCode = "duplicate_record"

	// Source errors
	CodeFileNotFound  ErrorCode = "file_not_found"
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Validation errors
	CodeMissingField ErrorCode = "missing_field"
	CodeOutOfRange   ErrorCode = "out_of_range"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
	CodePanic           ErrorCode = "panic"
)

// IngestError is the base error type for all application errors
type IngestError struct {
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
func (e *IngestError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *IngestError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *IngestError) GetExitCode() int {
	switch e.Category {
	case CategorySource:
		return 2
	case CategoryValidation, CategoryMessage, CategoryExtraction:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryStorage, CategoryDedup, CategoryInternal:
		return 5
	case CategoryEnrichment, CategoryResolution:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *IngestError) WithContext(key string, value interface{}) *IngestError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *IngestError) WithSuggestion(suggestion string) *IngestError {
	e.Suggestion = suggestion
	return e
}

// New creates a new IngestError
func New(category ErrorCategory, code ErrorCode, message string) *IngestError {
	return &IngestError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace()[1:],
	}
}

// Wrap wraps an existing error with IngestError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *IngestError {
	if err == nil {
		return nil
	}

	return &IngestError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func build(category ErrorCategory, code ErrorCode, message, suggestion string, err error) *IngestError {
	var result *IngestError
	if err != nil {
		result = Wrap(err, category, code, message)
	} else {
		result = New(category, code, message)
	}
	if suggestion != "" {
		result.WithSuggestion(suggestion)
	}
	return result
}

// MessageError reports a message that cannot produce a candidate.
func MessageError(code ErrorCode, sourceID string, err error) *IngestError {
	var message, suggestion string

	switch code {
	case CodeEmptyMessage:
		message = fmt.Sprintf("message %s has no text content", sourceID)
	case CodeNoSenderRule:
		message = fmt.Sprintf("no sender rule matches message %s", sourceID)
		suggestion = "add a sender rule for this sender and subject"
	case CodeMissingAmount:
		message = fmt.Sprintf("no amount rule matched message %s", sourceID)
		suggestion = "add an amount override to the sender rule"
	case CodeInvalidPayload:
		message = fmt.Sprintf("message %s has an unreadable payload", sourceID)
	default:
		message = fmt.Sprintf("message error: %s", sourceID)
	}

	return build(CategoryMessage, code, message, suggestion, err).
		WithContext("source_id", sourceID)
}

// ExtractionError reports an invalid extraction rule.
func ExtractionError(code ErrorCode, ruleID string, err error) *IngestError {
	message := fmt.Sprintf("invalid extraction rule %q", ruleID)
	return build(CategoryExtraction, code, message, "check the rule pattern and confidence", err).
		WithContext("rule_id", ruleID)
}

// DedupError reports a failed duplicate lookup.
func DedupError(code ErrorCode, key string, err error) *IngestError {
	message := fmt.Sprintf("duplicate lookup failed for thread %s", key)
	return build(CategoryDedup, code, message, "check the transaction store", err).
		WithContext("thread_id", key)
}

// ResolutionError reports an account that could not be resolved.
func ResolutionError(code ErrorCode, sourceID string, score float64, err error) *IngestError {
	var message, suggestion string

	switch code {
	case CodeAccountUnresolved:
		message = fmt.Sprintf("no account matched message %s (best score %.1f)", sourceID, score)
		suggestion = "add a keyword or alias to the account roster"
	case CodeEmptyRoster:
		message = "account roster is empty"
		suggestion = "load at least one account before ingesting"
	default:
		message = fmt.Sprintf("account resolution error: %s", sourceID)
	}

	return build(CategoryResolution, code, message, suggestion, err).
		WithContext("source_id", sourceID).
		WithContext("score", score)
}

// EnrichmentError reports a failed oracle call or response.
func EnrichmentError(code ErrorCode, sourceID string, err error) *IngestError {
	var message string

	switch code {
	case CodeOracleDisabled:
		message = "enrichment oracle is disabled"
	case CodeOracleUnavailable:
		message = fmt.Sprintf("enrichment oracle unavailable for message %s", sourceID)
	case CodeMalformedResponse:
		message = fmt.Sprintf("enrichment oracle returned a malformed response for message %s", sourceID)
	default:
		message = fmt.Sprintf("enrichment error: %s", sourceID)
	}

	return build(CategoryEnrichment, code, message, "", err).
		WithContext("source_id", sourceID)
}

// StorageError reports a failed store operation.
func StorageError(code ErrorCode, operation string, err error) *IngestError {
	var message string

	switch code {
	case CodeSaveFailed:
		message = fmt.Sprintf("failed to save transaction during %s", operation)
	case CodeBackfillFailed:
		message = fmt.Sprintf("failed to back-fill raw text during %s", operation)
	case CodeDuplicateRecord:
		message = fmt.Sprintf("transaction already exists during %s", operation)
	default:
		message = fmt.Sprintf("storage error during %s", operation)
	}

	return build(CategoryStorage, code, message, "", err).
		WithContext("operation", operation)
}

// SourceError reports an unreadable input file.
func SourceError(code ErrorCode, path string, line int, err error) *IngestError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in %s at line %d", path, line)
		suggestion = "check the record format"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column in %s", path)
		suggestion = "the roster needs at least id and name columns"
	default:
		message = fmt.Sprintf("source error: %s", path)
	}

	result := build(CategorySource, code, message, suggestion, err).
		WithContext("file", path)
	if line > 0 {
		result.WithContext("line", line)
	}
	return result
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *IngestError {
	var message, suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
	}

	return build(CategoryConfiguration, code, message, suggestion, err).
		WithContext("setting", setting).
		WithContext("value", value)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *IngestError {
	var message string

	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
	case CodeOutOfRange:
		message = fmt.Sprintf("value out of range in field '%s': %v", field, value)
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
	}

	return build(CategoryValidation, code, message, "", err).
		WithContext("field", field).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *IngestError {
	var message string

	switch code {
	case CodePanic:
		message = fmt.Sprintf("recovered panic during %s", operation)
	default:
		message = fmt.Sprintf("unexpected error during %s", operation)
	}

	return build(CategoryInternal, code, message, "this is likely a bug - please report it with the error details", err).
		WithContext("operation", operation)
}

// ErrorSummary aggregates the per-message errors of a run.
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*IngestError        `json:"errors"`
	SampleErrors []*IngestError        `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*IngestError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if summary.Errors == nil {
		summary.Errors = []*IngestError{}
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}
	sort.Strings(categories)

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	return es.ByCategory[category] > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	return es.ByCode[code] > 0
}

// AsIngestError extracts an IngestError from an error chain
func AsIngestError(err error) (*IngestError, bool) {
	var ingestErr *IngestError
	if errors.As(err, &ingestErr) {
		return ingestErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	ingestErr, ok := AsIngestError(err)
	return ok && ingestErr.Code == code
}

// WrapIfNeeded wraps an error if it's not already an IngestError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *IngestError {
	if err == nil {
		return nil
	}

	if ingestErr, ok := AsIngestError(err); ok {
		return ingestErr
	}

	return Wrap(err, category, code, message)
}
