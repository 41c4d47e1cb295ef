package db

import "context"

const nodeColumns = `id, region_id, name, endpoint_host, endpoint_port, server_public_key,
interface_name, pool_cidr, allowed_ips, max_capacity, current_peers,
api_host, api_port, api_user, api_password, is_simulated, status, priority, created_at`

func scanNode(row interface{ Scan(...interface{}) error }) (Node, error) {
	var n Node
	err := row.Scan(
		&n.ID, &n.RegionID, &n.Name, &n.EndpointHost, &n.EndpointPort, &n.ServerPublicKey,
		&n.InterfaceName, &n.PoolCidr, &n.AllowedIps, &n.MaxCapacity, &n.CurrentPeers,
		&n.ApiHost, &n.ApiPort, &n.ApiUser, &n.ApiPassword, &n.IsSimulated, &n.Status,
		&n.Priority, &n.CreatedAt,
	)
	return n, err
}

const createNode = `
INSERT INTO nodes (
    id, region_id, name, endpoint_host, endpoint_port, server_public_key,
    interface_name, pool_cidr, allowed_ips, max_capacity,
    api_host, api_port, api_user, api_password, is_simulated, status, priority
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + nodeColumns

// CreateNodeParams holds parameters for CreateNode
type CreateNodeParams struct {
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
	ApiHost         string
	ApiPort         int64
	ApiUser         string
	ApiPassword     string
	IsSimulated     bool
	Status          string
	Priority        int64
}

// CreateNode registers a new edge node
func (q *Queries) CreateNode(ctx context.Context, arg CreateNodeParams) (Node, error) {
	row := q.db.QueryRowContext(ctx, createNode,
		arg.ID, arg.RegionID, arg.Name, arg.EndpointHost, arg.EndpointPort, arg.ServerPublicKey,
		arg.InterfaceName, arg.PoolCidr, arg.AllowedIps, arg.MaxCapacity,
		arg.ApiHost, arg.ApiPort, arg.ApiUser, arg.ApiPassword, arg.IsSimulated,
		arg.Status, arg.Priority,
	)
	return scanNode(row)
}

const getNode = `SELECT ` + nodeColumns + ` FROM nodes WHERE id = ?`

// GetNode fetches a node by ID
func (q *Queries) GetNode(ctx context.Context, id string) (Node, error) {
	return scanNode(q.db.QueryRowContext(ctx, getNode, id))
}

const listNodes = `SELECT ` + nodeColumns + ` FROM nodes ORDER BY created_at`

// ListNodes returns every node in the fleet
func (q *Queries) ListNodes(ctx context.Context) ([]Node, error) {
	rows, err := q.db.QueryContext(ctx, listNodes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

const listEligibleNodes = `
SELECT ` + nodeColumns + `
FROM nodes
WHERE region_id IN (SELECT id FROM regions WHERE code = ? AND is_active = 1)
  AND status = 'UP'
  AND current_peers < max_capacity
ORDER BY priority DESC, current_peers ASC
`

// ListEligibleNodes returns nodes selectable for the region, best first:
// highest priority, then least loaded.
func (q *Queries) ListEligibleNodes(ctx context.Context, regionCode string) ([]Node, error) {
	rows, err := q.db.QueryContext(ctx, listEligibleNodes, regionCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

const updateNodeStatus = `UPDATE nodes SET status = ? WHERE id = ?`

// UpdateNodeStatusParams holds parameters for UpdateNodeStatus
type UpdateNodeStatusParams struct {
	ID     string
	Status string
}

// UpdateNodeStatus sets the node health status
func (q *Queries) UpdateNodeStatus(ctx context.Context, arg UpdateNodeStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateNodeStatus, arg.Status, arg.ID)
	return err
}

const incrementNodePeers = `
UPDATE nodes SET current_peers = current_peers + 1
WHERE id = ? AND current_peers < max_capacity
`

// IncrementNodePeers bumps the live counter, guarded by capacity. Returns
// the number of rows changed; zero means the node was already full.
func (q *Queries) IncrementNodePeers(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, incrementNodePeers, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const decrementNodePeers = `
UPDATE nodes SET current_peers = current_peers - 1
WHERE id = ? AND current_peers > 0
`

// DecrementNodePeers lowers the live counter, guarded at zero. Returns the
// number of rows changed; zero means the counter had already drifted.
func (q *Queries) DecrementNodePeers(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, decrementNodePeers, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countActivePeersByNode = `
SELECT COUNT(*) FROM peers WHERE node_id = ? AND status = 'ACTIVE'
`

// CountActivePeersByNode counts ACTIVE peers referencing the node
func (q *Queries) CountActivePeersByNode(ctx context.Context, nodeID string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countActivePeersByNode, nodeID).Scan(&count)
	return count, err
}
