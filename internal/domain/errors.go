package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeExtraction        ErrorType = "extraction"
	ErrorTypeMalformedResponse ErrorType = "malformed_response"
	ErrorTypeUnresolvedRef     ErrorType = "unresolved_reference"
	ErrorTypeMissingCollection ErrorType = "missing_collection"
	ErrorTypeDeviceNotFound    ErrorType = "device_not_found"
	ErrorTypeAPI               ErrorType = "api"
	ErrorTypeConfig            ErrorType = "config"
	ErrorTypeIO                ErrorType = "io"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// IsType reports whether err carries a DomainError of the given type anywhere in its chain.
func IsType(err error, errType ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == errType
	}
	return false
}

// Common error constructors
func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

// ExtractionError signals that no document text could be obtained.
func ExtractionError(message string, err error) *DomainError {
	return NewError(ErrorTypeExtraction, message, err)
}

// MalformedResponseError signals a completion that does not parse as the category schema.
func MalformedResponseError(message string, err error) *DomainError {
	return NewError(ErrorTypeMalformedResponse, message, err)
}

// UnresolvedReferenceError names the category whose "same as" target matched no device.
func UnresolvedReferenceError(category, target string) *DomainError {
	return NewError(ErrorTypeUnresolvedRef, fmt.Sprintf("%s: no device matches reference %q", category, target), nil)
}

// MissingCollectionError names the vendor whose record collection does not exist.
func MissingCollectionError(vendor string, err error) *DomainError {
	return NewError(ErrorTypeMissingCollection, fmt.Sprintf("no feature data found for %s", vendor), err)
}

// DeviceNotFoundError names the device absent from a vendor's collection.
func DeviceNotFoundError(vendor, device string) *DomainError {
	return NewError(ErrorTypeDeviceNotFound, fmt.Sprintf("device %s not found in %s data", device, vendor), nil)
}

func APIError(message string, err error) *DomainError {
	return NewError(ErrorTypeAPI, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}
