package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNoAvailableNode = errors.New("no available node in region")
	ErrPoolExhausted   = errors.New("address pool exhausted")
	ErrNodeNotFound    = errors.New("node not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrRegionNotFound  = errors.New("region not found")
	ErrDeviceLocked    = errors.New("device lock active")
	ErrDeviceTimeout   = errors.New("device call timed out")
	ErrDeviceInUse     = errors.New("device already linked to another account")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// DeviceError represents a control-plane failure against a remote device.
// Fatal during provisioning, absorbed during revocation.
type DeviceError struct {
	NodeID    string
	Operation string // "add_peer", "remove_peer", "health_check"
	Message   string
	Err       error
}

func (e *DeviceError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("device %s failed (node=%s): %s: %v", e.Operation, e.NodeID, e.Message, e.Err)
	}
	return fmt.Sprintf("device %s failed: %s: %v", e.Operation, e.Message, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewDeviceError creates a new device error
func NewDeviceError(nodeID, operation, message string, err error) *DeviceError {
	return &DeviceError{
		NodeID:    nodeID,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// DeviceSyncError represents a failed public-key update against a remote
// device for an already-active peer.
type DeviceSyncError struct {
	NodeID string
	UserID string
	Err    error
}

func (e *DeviceSyncError) Error() string {
	return fmt.Sprintf("device key sync failed (node=%s, user=%s): %v", e.NodeID, e.UserID, e.Err)
}

func (e *DeviceSyncError) Unwrap() error {
	return e.Err
}

// NewDeviceSyncError creates a new device key-sync error
func NewDeviceSyncError(nodeID, userID string, err error) *DeviceSyncError {
	return &DeviceSyncError{
		NodeID: nodeID,
		UserID: userID,
		Err:    err,
	}
}

// InvariantViolation signals internal ledger inconsistency (counter drift,
// duplicate active peers). A bug signal, never routed to users.
type InvariantViolation struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated [%s]: %s", e.Invariant, e.Detail)
}

// NewInvariantViolation creates a new invariant violation error
func NewInvariantViolation(invariant, detail string) *InvariantViolation {
	return &InvariantViolation{
		Invariant: invariant,
		Detail:    detail,
	}
}

// IsDeviceError reports whether any error in the chain is a device-plane error.
func IsDeviceError(err error) bool {
	var de *DeviceError
	var dse *DeviceSyncError
	return errors.As(err, &de) || errors.As(err, &dse)
}
