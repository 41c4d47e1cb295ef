package events

import "time"

// Event type identifiers for the peer lifecycle
const (
	EventPeerProvisioned   = "peer.provisioned"
	EventPeerRevoked       = "peer.revoked"
	EventPeerKeySynced     = "peer.key_synced"
	EventNodeStatusChanged = "node.status_changed"
	EventDeviceBound       = "user.device_bound"
)

// PeerProvisionedEvent is emitted after a peer commit, once the device
// entry exists and the ledger row is ACTIVE.
type PeerProvisionedEvent struct {
	UserID     string    `json:"user_id"`
	NodeID     string    `json:"node_id"`
	PeerID     string    `json:"peer_id"`
	RegionCode string    `json:"region_code"`
	AssignedIP string    `json:"assigned_ip"`
	Reconnect  bool      `json:"reconnect"`
	Timestamp  time.Time `json:"timestamp"`
}

// PeerRevokedEvent is emitted per revoked peer during revocation sweeps.
type PeerRevokedEvent struct {
	UserID       string    `json:"user_id"`
	NodeID       string    `json:"node_id"`
	PeerID       string    `json:"peer_id"`
	DeviceSynced bool      `json:"device_synced"`
	Timestamp    time.Time `json:"timestamp"`
}

// PeerKeySyncedEvent is emitted when a reconnect replaced the public key
// of an already-active peer on the device.
type PeerKeySyncedEvent struct {
	UserID    string    `json:"user_id"`
	NodeID    string    `json:"node_id"`
	PeerID    string    `json:"peer_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NodeStatusChangedEvent is emitted by the health sweep on transitions.
type NodeStatusChangedEvent struct {
	NodeID    string    `json:"node_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Timestamp time.Time `json:"timestamp"`
}

// DeviceBoundEvent is emitted when a device fingerprint is linked to an
// account for the first time.
type DeviceBoundEvent struct {
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
}
