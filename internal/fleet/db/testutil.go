package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) (*sql.DB, Store) {
	t.Helper()

	// Shared cache mode so every connection sees the same database
	db, err := sql.Open("sqlite3", "file::memory:?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Single connection keeps in-memory state consistent
	db.SetMaxOpenConns(1)

	store := NewStoreFromDB(db)
	if err := store.Setup(context.Background()); err != nil {
		db.Close()
		t.Fatalf("failed to setup test database schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db, store
}

// SeedTestRegion creates a region for tests
func SeedTestRegion(t *testing.T, store Store, code, name string) Region {
	t.Helper()

	region, err := store.CreateRegion(context.Background(), CreateRegionParams{
		ID:       uuid.New().String(),
		Code:     code,
		Name:     name,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("failed to seed test region: %v", err)
	}

	return region
}

// SeedTestNode creates a node for tests with sensible defaults filled in
func SeedTestNode(t *testing.T, store Store, params CreateNodeParams) Node {
	t.Helper()

	if params.ID == "" {
		params.ID = uuid.New().String()
	}
	if params.EndpointPort == 0 {
		params.EndpointPort = 51820
	}
	if params.InterfaceName == "" {
		params.InterfaceName = "wg-vpn"
	}
	if params.AllowedIps == "" {
		params.AllowedIps = "0.0.0.0/0, ::/0"
	}
	if params.ApiPort == 0 {
		params.ApiPort = 8728
	}
	if params.Status == "" {
		params.Status = NodeStatusUp
	}
	if params.Priority == 0 {
		params.Priority = 1
	}

	node, err := store.CreateNode(context.Background(), params)
	if err != nil {
		t.Fatalf("failed to seed test node: %v", err)
	}

	return node
}

// SeedTestUser creates a user for tests
func SeedTestUser(t *testing.T, store Store, username string) User {
	t.Helper()

	user, err := store.CreateUser(context.Background(), CreateUserParams{
		ID:       uuid.New().String(),
		Username: username,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("failed to seed test user: %v", err)
	}

	return user
}
