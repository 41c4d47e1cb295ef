package api

import "time"

// ProvisionResponse returns the placed peer and the client config text.
// The config never contains the client's private key.
type ProvisionResponse struct {
	Config     string `json:"config"`
	Region     string `json:"region"`
	Node       string `json:"node"`
	AssignedIP string `json:"assigned_ip"`
	Reconnect  bool   `json:"reconnect"`
}

// DeactivateResponse reports how many peers were revoked.
type DeactivateResponse struct {
	Revoked int `json:"revoked"`
}

// RegionInfo describes a selectable region.
type RegionInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// UserInfo describes an account.
type UserInfo struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	DeviceID   string `json:"device_id,omitempty"`
	AssignedIP string `json:"assigned_ip,omitempty"`
	IsActive   bool   `json:"is_active"`
}

// NodeInfo describes an edge node for operators.
type NodeInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Region       string `json:"region_id"`
	Status       string `json:"status"`
	CurrentPeers int64  `json:"current_peers"`
	MaxCapacity  int64  `json:"max_capacity"`
	IsSimulated  bool   `json:"is_simulated"`
}

// NodeHealthResponse reports a single health probe result.
type NodeHealthResponse struct {
	NodeID  string `json:"node_id"`
	Healthy bool   `json:"healthy"`
}

// AuditEntry is one audit trail record.
type AuditEntry struct {
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
