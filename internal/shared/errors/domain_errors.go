package errors

import (
	"errors"
	"fmt"
	"time"
)

// DomainError is the base interface for all structured errors in the application
type DomainError interface {
	error

	// Domain returns the domain context (e.g., "node", "peer", "device")
	Domain() string

	// Code returns a stable error code for API responses
	Code() string

	// Retryable indicates if the operation can be retried
	Retryable() bool

	// Timestamp returns when the error occurred
	Timestamp() time.Time
}

// BaseError is the foundational implementation of DomainError
type BaseError struct {
	domain    string
	code      string
	message   string
	cause     error
	retryable bool
	timestamp time.Time
}

func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.domain, e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.domain, e.code, e.message)
}

func (e *BaseError) Unwrap() error        { return e.cause }
func (e *BaseError) Domain() string       { return e.domain }
func (e *BaseError) Code() string         { return e.code }
func (e *BaseError) Retryable() bool      { return e.retryable }
func (e *BaseError) Timestamp() time.Time { return e.timestamp }

// NewBaseError creates a new BaseError with the specified parameters
func NewBaseError(domain, code, message string, retryable bool, cause error) *BaseError {
	return &BaseError{
		domain:    domain,
		code:      code,
		message:   message,
		cause:     cause,
		retryable: retryable,
		timestamp: time.Now(),
	}
}

// Standardized Error Codes
const (
	// Node domain
	ErrCodeNodeNotFound    = "node_not_found"
	ErrCodeNodeAtCapacity  = "node_at_capacity"
	ErrCodeNoAvailableNode = "no_available_node"
	ErrCodeRegionNotFound  = "region_not_found"

	// Peer domain
	ErrCodePeerNotFound     = "peer_not_found"
	ErrCodePeerValidation   = "peer_validation"
	ErrCodeInvalidPublicKey = "invalid_public_key"

	// Address allocation
	ErrCodePoolExhausted = "pool_exhausted"
	ErrCodeInvalidCIDR   = "invalid_cidr"
	ErrCodeIPConflict    = "ip_conflict"

	// Device control plane
	ErrCodeDeviceError     = "device_error"
	ErrCodeDeviceSync      = "device_sync_error"
	ErrCodeDeviceTimeout   = "device_timeout"
	ErrCodeDeviceUnhealthy = "device_unhealthy"

	// User domain
	ErrCodeUserNotFound    = "user_not_found"
	ErrCodeDeviceLocked    = "device_locked"
	ErrCodeDeviceInUse     = "device_in_use"
	ErrCodeDeviceRequired  = "device_required"
	ErrCodeAccountDisabled = "account_disabled"

	// System
	ErrCodeDatabase      = "database_error"
	ErrCodeConfiguration = "config_error"
	ErrCodeInvariant     = "invariant_violation"
	ErrCodeValidation    = "validation_error"
)

// Domain Constants
const (
	DomainNode   = "node"
	DomainPeer   = "peer"
	DomainUser   = "user"
	DomainIP     = "ip"
	DomainDevice = "device"
	DomainSystem = "system"
)

// NewNodeError creates a standardized node domain error
func NewNodeError(code, message string, retryable bool, cause error) DomainError {
	return NewBaseError(DomainNode, code, message, retryable, cause)
}

// NewPeerError creates a standardized peer domain error
func NewPeerError(code, message string, retryable bool, cause error) DomainError {
	return NewBaseError(DomainPeer, code, message, retryable, cause)
}

// NewUserError creates a standardized user domain error
func NewUserError(code, message string, retryable bool, cause error) DomainError {
	return NewBaseError(DomainUser, code, message, retryable, cause)
}

// NewIPError creates a standardized IP allocation error
func NewIPError(code, message string, retryable bool, cause error) DomainError {
	return NewBaseError(DomainIP, code, message, retryable, cause)
}

// NewControlPlaneError creates a standardized device control-plane error
func NewControlPlaneError(code, message string, retryable bool, cause error) DomainError {
	return NewBaseError(DomainDevice, code, message, retryable, cause)
}

// NewSystemError creates a standardized system error
func NewSystemError(code, message string, retryable bool, cause error) DomainError {
	return NewBaseError(DomainSystem, code, message, retryable, cause)
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var domainErr DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Retryable()
	}
	return false
}

// GetErrorCode returns the error code if it's a DomainError, otherwise "unknown"
func GetErrorCode(err error) string {
	var domainErr DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code()
	}
	return "unknown"
}

// IsErrorCode checks if any error in the chain has the specified code
func IsErrorCode(err error, code string) bool {
	for err != nil {
		if domainErr, ok := err.(DomainError); ok && domainErr.Code() == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// WrapWithDomain wraps an existing error with domain context
func WrapWithDomain(err error, domain, code, message string, retryable bool) DomainError {
	return NewBaseError(domain, code, message, retryable, err)
}
