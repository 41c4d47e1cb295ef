package db

import "context"

// Querier defines all single-statement ledger operations. Implemented by
// Queries against either the pooled connection or an open transaction.
type Querier interface {
	// Regions
	CreateRegion(ctx context.Context, arg CreateRegionParams) (Region, error)
	GetRegion(ctx context.Context, id string) (Region, error)
	GetRegionByCode(ctx context.Context, code string) (Region, error)
	ListAvailableRegions(ctx context.Context) ([]Region, error)

	// Nodes
	CreateNode(ctx context.Context, arg CreateNodeParams) (Node, error)
	GetNode(ctx context.Context, id string) (Node, error)
	ListNodes(ctx context.Context) ([]Node, error)
	ListEligibleNodes(ctx context.Context, regionCode string) ([]Node, error)
	UpdateNodeStatus(ctx context.Context, arg UpdateNodeStatusParams) error
	IncrementNodePeers(ctx context.Context, id string) (int64, error)
	DecrementNodePeers(ctx context.Context, id string) (int64, error)
	CountActivePeersByNode(ctx context.Context, nodeID string) (int64, error)

	// Users
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByDeviceID(ctx context.Context, deviceID string) (User, error)
	SetUserDeviceID(ctx context.Context, arg SetUserDeviceIDParams) error
	ClearUserDeviceID(ctx context.Context, id string) error
	SetUserAssignedIP(ctx context.Context, arg SetUserAssignedIPParams) error
	SetUserPreferredRegion(ctx context.Context, arg SetUserPreferredRegionParams) error
	ListAssignedIPs(ctx context.Context) ([]string, error)

	// Peers
	CreatePeer(ctx context.Context, arg CreatePeerParams) (Peer, error)
	GetPeer(ctx context.Context, id string) (Peer, error)
	GetActivePeerForUserNode(ctx context.Context, arg GetActivePeerForUserNodeParams) (Peer, error)
	ListActivePeersByUser(ctx context.Context, userID string) ([]Peer, error)
	ListPeersByNode(ctx context.Context, nodeID string) ([]Peer, error)
	UpdatePeerPublicKey(ctx context.Context, arg UpdatePeerPublicKeyParams) error
	UpdatePeerStatus(ctx context.Context, arg UpdatePeerStatusParams) error

	// Audit
	CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (AuditLog, error)
	ListAuditLogsByUser(ctx context.Context, userID string) ([]AuditLog, error)
}

var _ Querier = (*Queries)(nil)
