package db

import "context"

const createAuditLog = `
INSERT INTO audit_logs (id, user_id, action, details)
VALUES (?, ?, ?, ?)
RETURNING id, user_id, action, details, created_at
`

// CreateAuditLogParams holds parameters for CreateAuditLog
type CreateAuditLogParams struct {
	ID      string
	UserID  string
	Action  string
	Details string
}

// CreateAuditLog records a lifecycle transition
func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (AuditLog, error) {
	row := q.db.QueryRowContext(ctx, createAuditLog, arg.ID, arg.UserID, arg.Action, arg.Details)
	var a AuditLog
	err := row.Scan(&a.ID, &a.UserID, &a.Action, &a.Details, &a.CreatedAt)
	return a, err
}

const listAuditLogsByUser = `
SELECT id, user_id, action, details, created_at
FROM audit_logs
WHERE user_id = ?
ORDER BY created_at DESC
`

// ListAuditLogsByUser returns the user's audit trail, newest first
func (q *Queries) ListAuditLogsByUser(ctx context.Context, userID string) ([]AuditLog, error) {
	rows, err := q.db.QueryContext(ctx, listAuditLogsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuditLog
	for rows.Next() {
		var a AuditLog
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.Details, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
