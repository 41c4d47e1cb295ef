package db

import "context"

const peerColumns = `id, user_id, node_id, client_public_key, assigned_ip, status, provisioned_at`

func scanPeer(row interface{ Scan(...interface{}) error }) (Peer, error) {
	var p Peer
	err := row.Scan(&p.ID, &p.UserID, &p.NodeID, &p.ClientPublicKey, &p.AssignedIp, &p.Status, &p.ProvisionedAt)
	return p, err
}

const createPeer = `
INSERT INTO peers (id, user_id, node_id, client_public_key, assigned_ip, status)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + peerColumns

// CreatePeerParams holds parameters for CreatePeer
type CreatePeerParams struct {
	ID              string
	UserID          string
	NodeID          string
	ClientPublicKey string
	AssignedIp      string
	Status          string
}

// CreatePeer inserts a new tunnel peer row
func (q *Queries) CreatePeer(ctx context.Context, arg CreatePeerParams) (Peer, error) {
	row := q.db.QueryRowContext(ctx, createPeer,
		arg.ID, arg.UserID, arg.NodeID, arg.ClientPublicKey, arg.AssignedIp, arg.Status)
	return scanPeer(row)
}

const getPeer = `SELECT ` + peerColumns + ` FROM peers WHERE id = ?`

// GetPeer fetches a peer by ID
func (q *Queries) GetPeer(ctx context.Context, id string) (Peer, error) {
	return scanPeer(q.db.QueryRowContext(ctx, getPeer, id))
}

const getActivePeerForUserNode = `
SELECT ` + peerColumns + `
FROM peers
WHERE user_id = ? AND node_id = ? AND status = 'ACTIVE'
`

// GetActivePeerForUserNodeParams holds parameters for GetActivePeerForUserNode
type GetActivePeerForUserNodeParams struct {
	UserID string
	NodeID string
}

// GetActivePeerForUserNode fetches the ACTIVE peer for a user on a specific
// node, if any.
func (q *Queries) GetActivePeerForUserNode(ctx context.Context, arg GetActivePeerForUserNodeParams) (Peer, error) {
	return scanPeer(q.db.QueryRowContext(ctx, getActivePeerForUserNode, arg.UserID, arg.NodeID))
}

const listActivePeersByUser = `
SELECT ` + peerColumns + ` FROM peers WHERE user_id = ? AND status = 'ACTIVE'
`

// ListActivePeersByUser returns every ACTIVE peer the user holds fleet-wide
func (q *Queries) ListActivePeersByUser(ctx context.Context, userID string) ([]Peer, error) {
	rows, err := q.db.QueryContext(ctx, listActivePeersByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Peer
	for rows.Next() {
		p, err := scanPeer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const listPeersByNode = `SELECT ` + peerColumns + ` FROM peers WHERE node_id = ?`

// ListPeersByNode returns all peers (any state) referencing the node
func (q *Queries) ListPeersByNode(ctx context.Context, nodeID string) ([]Peer, error) {
	rows, err := q.db.QueryContext(ctx, listPeersByNode, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Peer
	for rows.Next() {
		p, err := scanPeer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const updatePeerPublicKey = `UPDATE peers SET client_public_key = ? WHERE id = ?`

// UpdatePeerPublicKeyParams holds parameters for UpdatePeerPublicKey
type UpdatePeerPublicKeyParams struct {
	ID              string
	ClientPublicKey string
}

// UpdatePeerPublicKey replaces the stored client key after a device sync
func (q *Queries) UpdatePeerPublicKey(ctx context.Context, arg UpdatePeerPublicKeyParams) error {
	_, err := q.db.ExecContext(ctx, updatePeerPublicKey, arg.ClientPublicKey, arg.ID)
	return err
}

const updatePeerStatus = `UPDATE peers SET status = ? WHERE id = ?`

// UpdatePeerStatusParams holds parameters for UpdatePeerStatus
type UpdatePeerStatusParams struct {
	ID     string
	Status string
}

// UpdatePeerStatus transitions the peer lifecycle state
func (q *Queries) UpdatePeerStatus(ctx context.Context, arg UpdatePeerStatusParams) error {
	_, err := q.db.ExecContext(ctx, updatePeerStatus, arg.Status, arg.ID)
	return err
}
