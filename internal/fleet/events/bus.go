package events

import (
	"fmt"
	"time"

	"github.com/gookit/event"

	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
)

// FleetEventBus wraps the gookit event manager for peer lifecycle events.
// Publishing is synchronous but failures never propagate into the
// provisioning path: a broken listener must not break a tunnel.
type FleetEventBus struct {
	bus    *event.Manager
	logger *logger.Logger
}

// NewFleetEventBus creates a new event bus for peer lifecycle events
func NewFleetEventBus(log *logger.Logger) *FleetEventBus {
	return &FleetEventBus{
		bus:    event.NewManager("fleet"),
		logger: log.WithComponent("events"),
	}
}

// On registers a listener for an event type
func (eb *FleetEventBus) On(eventType string, listener event.Listener) {
	eb.bus.On(eventType, listener)
}

// Close shuts down the event manager
func (eb *FleetEventBus) Close() error {
	eb.bus.Clear()
	return nil
}

func (eb *FleetEventBus) fire(eventType string, payload interface{}) error {
	err, _ := eb.bus.Fire(eventType, event.M{"payload": payload})
	if err != nil {
		eb.logger.Error("failed to publish event",
			"event_type", eventType,
			"error", err)
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// PublishPeerProvisioned publishes a peer provisioned event
func (eb *FleetEventBus) PublishPeerProvisioned(userID, nodeID, peerID, regionCode, assignedIP string, reconnect bool) error {
	payload := PeerProvisionedEvent{
		UserID:     userID,
		NodeID:     nodeID,
		PeerID:     peerID,
		RegionCode: regionCode,
		AssignedIP: assignedIP,
		Reconnect:  reconnect,
		Timestamp:  time.Now(),
	}

	eb.logger.Debug("publishing peer provisioned event",
		"user_id", userID,
		"node_id", nodeID,
		"assigned_ip", assignedIP,
		"reconnect", reconnect)

	return eb.fire(EventPeerProvisioned, payload)
}

// PublishPeerRevoked publishes a peer revoked event
func (eb *FleetEventBus) PublishPeerRevoked(userID, nodeID, peerID string, deviceSynced bool) error {
	payload := PeerRevokedEvent{
		UserID:       userID,
		NodeID:       nodeID,
		PeerID:       peerID,
		DeviceSynced: deviceSynced,
		Timestamp:    time.Now(),
	}

	eb.logger.Debug("publishing peer revoked event",
		"user_id", userID,
		"node_id", nodeID,
		"device_synced", deviceSynced)

	return eb.fire(EventPeerRevoked, payload)
}

// PublishPeerKeySynced publishes a key sync event
func (eb *FleetEventBus) PublishPeerKeySynced(userID, nodeID, peerID string) error {
	payload := PeerKeySyncedEvent{
		UserID:    userID,
		NodeID:    nodeID,
		PeerID:    peerID,
		Timestamp: time.Now(),
	}

	eb.logger.Debug("publishing key synced event",
		"user_id", userID,
		"node_id", nodeID)

	return eb.fire(EventPeerKeySynced, payload)
}

// PublishNodeStatusChanged publishes a node status transition
func (eb *FleetEventBus) PublishNodeStatusChanged(nodeID, oldStatus, newStatus string) error {
	payload := NodeStatusChangedEvent{
		NodeID:    nodeID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Timestamp: time.Now(),
	}

	eb.logger.Info("publishing node status changed event",
		"node_id", nodeID,
		"old_status", oldStatus,
		"new_status", newStatus)

	return eb.fire(EventNodeStatusChanged, payload)
}

// PublishDeviceBound publishes a device binding event
func (eb *FleetEventBus) PublishDeviceBound(userID, deviceID string) error {
	payload := DeviceBoundEvent{
		UserID:    userID,
		DeviceID:  deviceID,
		Timestamp: time.Now(),
	}

	eb.logger.Debug("publishing device bound event",
		"user_id", userID,
		"device_id", deviceID)

	return eb.fire(EventDeviceBound, payload)
}

// ExtractPayload safely extracts and casts an event payload
func ExtractPayload[T any](e event.Event) (T, error) {
	var zero T

	payload := e.Get("payload")
	if payload == nil {
		return zero, fmt.Errorf("no payload found in event")
	}

	typed, ok := payload.(T)
	if !ok {
		return zero, fmt.Errorf("payload type mismatch: expected %T, got %T", zero, payload)
	}

	return typed, nil
}
