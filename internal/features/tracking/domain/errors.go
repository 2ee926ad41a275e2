package domain

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
)

// ErrorCode is a stable, client-facing error identifier.
type ErrorCode string

const (
	// CodeEmptyTrackingID is returned for blank identifiers.
	CodeEmptyTrackingID ErrorCode = "400-01"
	// CodeInvalidTrackingNumber is returned when the number fails the carrier's format rule.
	CodeInvalidTrackingNumber ErrorCode = "400-02"
	// CodeMissingParam is returned when a carrier-required parameter is absent.
	CodeMissingParam ErrorCode = "400-03"
	// CodeUnsupportedCarrier is returned for carriers outside the registered set.
	CodeUnsupportedCarrier ErrorCode = "400-04"
	// CodeMalformedTrackingID is returned when the input is not "carrier-number".
	CodeMalformedTrackingID ErrorCode = "400-05"
	// CodeNotFound is returned when no tracking data exists for an identifier.
	CodeNotFound ErrorCode = "404-01"
	// CodeCarrierUnavailable is returned when the carrier call fails.
	CodeCarrierUnavailable ErrorCode = "502-01"
	// CodeInternal is returned for unexpected failures.
	CodeInternal ErrorCode = "500-01"
)

// ValidationError reports invalid caller input.
type ValidationError struct {
	Code ErrorCode
	// Input is the offending value (identifier, carrier or parameter name).
	Input string
}

// NewValidationError creates a ValidationError.
func NewValidationError(code ErrorCode, input string) *ValidationError {
	return &ValidationError{Code: code, Input: input}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error %s: %s (%q)", e.Code, defaultErrorMessages[e.Code], e.Input)
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

//go:embed error_codes.json
var defaultErrorCodesJSON []byte

var defaultErrorMessages = mustDecodeErrorMessages(defaultErrorCodesJSON)

func mustDecodeErrorMessages(data []byte) map[ErrorCode]string {
	var m map[ErrorCode]string
	if err := json.Unmarshal(data, &m); err != nil {
		panic(fmt.Sprintf("embedded error codes: %v", err))
	}
	return m
}

// ErrorRegistry maps error codes to messages. It is immutable once built.
type ErrorRegistry struct {
	messages map[ErrorCode]string
}

// DefaultErrorRegistry returns the registry built from the embedded codes.
func DefaultErrorRegistry() *ErrorRegistry {
	return &ErrorRegistry{messages: maps.Clone(defaultErrorMessages)}
}

// LoadErrorRegistry reads a JSON object of code → message from path and layers
// it over the embedded defaults. An empty path returns the defaults.
func LoadErrorRegistry(path string) (*ErrorRegistry, error) {
	reg := DefaultErrorRegistry()
	if path == "" {
		return reg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read error codes: %w", err)
	}

	var overrides map[ErrorCode]string
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("decode error codes: %w", err)
	}
	maps.Copy(reg.messages, overrides)

	return reg, nil
}

// Message returns the message for code, or "" if unknown.
func (r *ErrorRegistry) Message(code ErrorCode) string {
	return r.messages[code]
}
