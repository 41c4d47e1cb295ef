package device

import (
	stderrors "errors"

	"github.com/bryanfrank99/mk-api-wire/internal/shared/errors"
)

// CallResult classifies a failed device call for the caller's retry logic.
type CallResult int

const (
	// CallOK means the device applied the change.
	CallOK CallResult = iota
	// CallRecoverable means the call failed but the node may still be
	// usable: a retry or a fall-over to the next node makes sense.
	CallRecoverable
	// CallFatal means the node should be treated as unreachable for
	// this operation. Timeouts and connection failures land here.
	CallFatal
)

// Classify maps a device call error to a CallResult.
func Classify(err error) CallResult {
	if err == nil {
		return CallOK
	}

	var devErr *errors.DeviceError
	if stderrors.As(err, &devErr) {
		switch devErr.Operation {
		case "dial", "login":
			return CallFatal
		}
	}

	if stderrors.Is(err, errors.ErrDeviceTimeout) {
		return CallFatal
	}

	return CallRecoverable
}
