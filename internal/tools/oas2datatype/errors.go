package oas2datatype

import (
	"fmt"

	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

// ParserErrorCode defines the type for parser-specific error codes.
type ParserErrorCode string

const (
	// CodeDocumentCreationError indicates an error when creating a new document from content.
	CodeDocumentCreationError ParserErrorCode = "DocumentCreationError"
	// CodeModelBuildError indicates an error when building the V3 model from the document.
	CodeModelBuildError ParserErrorCode = "ModelBuildError"
	// CodeUnsupportedVersion indicates a document that is not OpenAPI 3.
	CodeUnsupportedVersion ParserErrorCode = "UnsupportedVersion"
)

// ParserError represents a structured error from the OAS parser.
type ParserError struct {
	// Code is the machine-readable error code.
	Code ParserErrorCode
	// Message is the human-readable error message.
	Message string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e ParserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parser error [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("parser error [%s]: %s", e.Code, e.Message)
}

// Unwrap provides compatibility for Go's errors.Is and errors.As.
func (e ParserError) Unwrap() error {
	return e.Err
}

// ConversionError reports a schema of a document that could not be turned
// into a DataType. Err is a *result.FailureError holding the located errors.
type ConversionError struct {
	// Schema is the component name, or where the inline schema was found.
	Schema string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("schema '%s' is invalid: %v", e.Schema, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// NewConversionError wraps a failed conversion. It returns nil for successes.
func NewConversionError[T any](schema string, res result.Result[T]) error {
	if err := res.Err(); err != nil {
		return &ConversionError{Schema: schema, Err: err}
	}
	return nil
}
