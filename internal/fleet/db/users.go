package db

import (
	"context"
	"database/sql"
)

const userColumns = `id, username, device_id, preferred_region_id, is_active, assigned_ip, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.DeviceID, &u.PreferredRegionID, &u.IsActive, &u.AssignedIp, &u.CreatedAt)
	return u, err
}

const createUser = `
INSERT INTO users (id, username, preferred_region_id, is_active)
VALUES (?, ?, ?, ?)
RETURNING ` + userColumns

// CreateUserParams holds parameters for CreateUser
type CreateUserParams struct {
	ID                string
	Username          string
	PreferredRegionID sql.NullString
	IsActive          bool
}

// CreateUser inserts a new user account
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.ID, arg.Username, arg.PreferredRegionID, arg.IsActive)
	return scanUser(row)
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

// GetUser fetches a user by ID
func (q *Queries) GetUser(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ?`

// GetUserByUsername fetches a user by username
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const getUserByDeviceID = `SELECT ` + userColumns + ` FROM users WHERE device_id = ?`

// GetUserByDeviceID fetches the user bound to a device fingerprint
func (q *Queries) GetUserByDeviceID(ctx context.Context, deviceID string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByDeviceID, deviceID))
}

const setUserDeviceID = `UPDATE users SET device_id = ? WHERE id = ?`

// SetUserDeviceIDParams holds parameters for SetUserDeviceID
type SetUserDeviceIDParams struct {
	ID       string
	DeviceID string
}

// SetUserDeviceID binds the first-seen device fingerprint to the user.
// The unique column constraint rejects a fingerprint already held by
// another account.
func (q *Queries) SetUserDeviceID(ctx context.Context, arg SetUserDeviceIDParams) error {
	_, err := q.db.ExecContext(ctx, setUserDeviceID, arg.DeviceID, arg.ID)
	return err
}

const clearUserDeviceID = `UPDATE users SET device_id = NULL WHERE id = ?`

// ClearUserDeviceID resets the device binding (administrative action)
func (q *Queries) ClearUserDeviceID(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, clearUserDeviceID, id)
	return err
}

const setUserAssignedIP = `UPDATE users SET assigned_ip = ? WHERE id = ?`

// SetUserAssignedIPParams holds parameters for SetUserAssignedIP
type SetUserAssignedIPParams struct {
	ID         string
	AssignedIp string
}

// SetUserAssignedIP persists the user's stable fleet-wide address. The
// unique column constraint rejects a concurrent duplicate allocation.
func (q *Queries) SetUserAssignedIP(ctx context.Context, arg SetUserAssignedIPParams) error {
	_, err := q.db.ExecContext(ctx, setUserAssignedIP, arg.AssignedIp, arg.ID)
	return err
}

const setUserPreferredRegion = `UPDATE users SET preferred_region_id = ? WHERE id = ?`

// SetUserPreferredRegionParams holds parameters for SetUserPreferredRegion
type SetUserPreferredRegionParams struct {
	ID                string
	PreferredRegionID sql.NullString
}

// SetUserPreferredRegion stores the user's default region choice
func (q *Queries) SetUserPreferredRegion(ctx context.Context, arg SetUserPreferredRegionParams) error {
	_, err := q.db.ExecContext(ctx, setUserPreferredRegion, arg.PreferredRegionID, arg.ID)
	return err
}

const listAssignedIPs = `SELECT assigned_ip FROM users WHERE assigned_ip IS NOT NULL`

// ListAssignedIPs returns every persisted assigned_ip fleet-wide. The
// allocator treats these as claimed regardless of which node's pool they
// came from.
func (q *Queries) ListAssignedIPs(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listAssignedIPs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var ip string
		if err := rows.Scan(&ip); err != nil {
			return nil, err
		}
		items = append(items, ip)
	}
	return items, rows.Err()
}
