// Package testutil provides shared test helpers for audithawk packages.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/audithawk/internal/model"
	"github.com/Veraticus/audithawk/internal/service"
	"github.com/Veraticus/audithawk/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	TrustedVendors []string
	Sessions       []*model.AuditSession
	SkipMigrations bool
}

// SetupTestDB creates a new migrated in-memory database that is closed when
// the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
//
// Example:
//
//	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
//		TrustedVendors: []string{"Acme"},
//	})
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for _, name := range opts.TrustedVendors {
		if _, err := store.AddTrustedVendor(ctx, name); err != nil {
			t.Fatalf("failed to seed vendor %q: %v", name, err)
		}
	}

	for _, session := range opts.Sessions {
		if err := store.SaveSession(ctx, session); err != nil {
			t.Fatalf("failed to seed session %q: %v", session.ID, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustListSessions returns the stored history or fails the test.
func (db *TestDB) MustListSessions() []model.AuditSession {
	db.t.Helper()
	sessions, err := db.Storage.ListSessions(context.Background(), 0)
	if err != nil {
		db.t.Fatalf("failed to list sessions: %v", err)
	}
	return sessions
}

// MustVendorNames returns the stored allowlist names or fails the test.
func (db *TestDB) MustVendorNames() []string {
	db.t.Helper()
	vendors, err := db.Storage.ListTrustedVendors(context.Background())
	if err != nil {
		db.t.Fatalf("failed to list vendors: %v", err)
	}
	names := make([]string, len(vendors))
	for i, v := range vendors {
		names[i] = v.Name
	}
	return names
}
