package db

import "context"

const createRegion = `
INSERT INTO regions (id, code, name, is_active)
VALUES (?, ?, ?, ?)
RETURNING id, code, name, is_active, created_at
`

// CreateRegionParams holds parameters for CreateRegion
type CreateRegionParams struct {
	ID       string
	Code     string
	Name     string
	IsActive bool
}

// CreateRegion inserts a new region
func (q *Queries) CreateRegion(ctx context.Context, arg CreateRegionParams) (Region, error) {
	row := q.db.QueryRowContext(ctx, createRegion, arg.ID, arg.Code, arg.Name, arg.IsActive)
	var r Region
	err := row.Scan(&r.ID, &r.Code, &r.Name, &r.IsActive, &r.CreatedAt)
	return r, err
}

const getRegion = `
SELECT id, code, name, is_active, created_at FROM regions WHERE id = ?
`

// GetRegion fetches a region by ID
func (q *Queries) GetRegion(ctx context.Context, id string) (Region, error) {
	row := q.db.QueryRowContext(ctx, getRegion, id)
	var r Region
	err := row.Scan(&r.ID, &r.Code, &r.Name, &r.IsActive, &r.CreatedAt)
	return r, err
}

const getRegionByCode = `
SELECT id, code, name, is_active, created_at FROM regions WHERE code = ?
`

// GetRegionByCode fetches a region by its unique code
func (q *Queries) GetRegionByCode(ctx context.Context, code string) (Region, error) {
	row := q.db.QueryRowContext(ctx, getRegionByCode, code)
	var r Region
	err := row.Scan(&r.ID, &r.Code, &r.Name, &r.IsActive, &r.CreatedAt)
	return r, err
}

const listAvailableRegions = `
SELECT DISTINCT r.id, r.code, r.name, r.is_active, r.created_at
FROM regions r
JOIN nodes n ON n.region_id = r.id
WHERE r.is_active = 1
  AND n.status = 'UP'
  AND n.current_peers < n.max_capacity
ORDER BY r.code
`

// ListAvailableRegions returns active regions that have at least one
// selectable node.
func (q *Queries) ListAvailableRegions(ctx context.Context) ([]Region, error) {
	rows, err := q.db.QueryContext(ctx, listAvailableRegions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Region
	for rows.Next() {
		var r Region
		if err := rows.Scan(&r.ID, &r.Code, &r.Name, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
