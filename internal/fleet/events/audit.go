package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gookit/event"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
)

// AuditRecorder turns lifecycle events into audit_logs rows. Recording
// is best effort: a failed insert is logged and dropped, never surfaced
// to the operation that fired the event.
type AuditRecorder struct {
	store  db.Store
	logger *logger.Logger
}

func NewAuditRecorder(store db.Store, log *logger.Logger) *AuditRecorder {
	return &AuditRecorder{
		store:  store,
		logger: log.WithComponent("audit"),
	}
}

// Register subscribes the recorder to every auditable event type.
func (r *AuditRecorder) Register(bus *FleetEventBus) {
	bus.On(EventPeerProvisioned, event.ListenerFunc(r.onPeerProvisioned))
	bus.On(EventPeerRevoked, event.ListenerFunc(r.onPeerRevoked))
	bus.On(EventPeerKeySynced, event.ListenerFunc(r.onPeerKeySynced))
	bus.On(EventDeviceBound, event.ListenerFunc(r.onDeviceBound))
}

func (r *AuditRecorder) record(userID, action, details string) error {
	_, err := r.store.CreateAuditLog(context.Background(), db.CreateAuditLogParams{
		ID:      uuid.New().String(),
		UserID:  userID,
		Action:  action,
		Details: details,
	})
	if err != nil {
		r.logger.Error("failed to write audit log",
			"user_id", userID,
			"action", action,
			"error", err)
	}
	return nil
}

func (r *AuditRecorder) onPeerProvisioned(e event.Event) error {
	payload, err := ExtractPayload[PeerProvisionedEvent](e)
	if err != nil {
		return err
	}

	action := "PROVISION"
	if payload.Reconnect {
		action = "RECONNECT"
	}
	details := fmt.Sprintf("peer %s on node %s (region=%s, ip=%s)",
		payload.PeerID, payload.NodeID, payload.RegionCode, payload.AssignedIP)
	return r.record(payload.UserID, action, details)
}

func (r *AuditRecorder) onPeerRevoked(e event.Event) error {
	payload, err := ExtractPayload[PeerRevokedEvent](e)
	if err != nil {
		return err
	}

	details := fmt.Sprintf("peer %s on node %s (device_synced=%t)",
		payload.PeerID, payload.NodeID, payload.DeviceSynced)
	return r.record(payload.UserID, "REVOKE", details)
}

func (r *AuditRecorder) onPeerKeySynced(e event.Event) error {
	payload, err := ExtractPayload[PeerKeySyncedEvent](e)
	if err != nil {
		return err
	}

	details := fmt.Sprintf("public key replaced for peer %s on node %s",
		payload.PeerID, payload.NodeID)
	return r.record(payload.UserID, "KEY_SYNC", details)
}

func (r *AuditRecorder) onDeviceBound(e event.Event) error {
	payload, err := ExtractPayload[DeviceBoundEvent](e)
	if err != nil {
		return err
	}

	details := fmt.Sprintf("device %s linked to account", payload.DeviceID)
	return r.record(payload.UserID, "DEVICE_BIND", details)
}
