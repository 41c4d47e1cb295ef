package db

import (
	"database/sql"
	"time"
)

// Node status values tracked in the ledger.
const (
	NodeStatusUp          = "UP"
	NodeStatusDown        = "DOWN"
	NodeStatusMaintenance = "MAINTENANCE"
)

// Peer lifecycle states.
const (
	PeerStatusActive  = "ACTIVE"
	PeerStatusRevoked = "REVOKED"
)

// Region groups nodes under a routable code (US, MX, PT).
type Region struct {
	ID        string
	Code      string
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// Node is a VPN edge endpoint with its own address pool, capacity and
// remote device control channel.
type Node struct {
	ID              string
	RegionID        string
	Name            string
	EndpointHost    string
	EndpointPort    int64
	ServerPublicKey string
	InterfaceName   string
	PoolCidr        string
	AllowedIps      string
	MaxCapacity     int64
	CurrentPeers    int64
	ApiHost         string
	ApiPort         int64
	ApiUser         string
	ApiPassword     string
	IsSimulated     bool
	Status          string
	Priority        int64
	CreatedAt       time.Time
}

// HasCapacity reports whether the node can take another peer.
func (n *Node) HasCapacity() bool {
	return n.CurrentPeers < n.MaxCapacity
}

// Selectable reports whether the node is eligible for new provisioning.
func (n *Node) Selectable() bool {
	return n.Status == NodeStatusUp && n.HasCapacity()
}

// User is an account with a stable fleet-wide address and an optional
// first-seen device fingerprint.
type User struct {
	ID                string
	Username          string
	DeviceID          sql.NullString
	PreferredRegionID sql.NullString
	IsActive          bool
	AssignedIp        sql.NullString
	CreatedAt         time.Time
}

// Peer is a provisioned tunnel identity bound to one user on one node.
type Peer struct {
	ID              string
	UserID          string
	NodeID          string
	ClientPublicKey string
	AssignedIp      string
	Status          string
	ProvisionedAt   time.Time
}

// NullString wraps a string for nullable columns, empty meaning NULL.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// AuditLog records a lifecycle transition for the audit trail.
type AuditLog struct {
	ID        string
	UserID    sql.NullString
	Action    string
	Details   string
	CreatedAt time.Time
}
