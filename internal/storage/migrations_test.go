package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/audithawk/internal/common"
)

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var version int
	if err := store.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, ExpectedSchemaVersion)
	}
}

func TestMigrate_NewerSchemaIsRejected(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	if _, err := store.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("failed to set schema version: %v", err)
	}

	err := store.Migrate(context.Background())
	if !errors.Is(err, common.ErrDatabaseCorrupted) {
		t.Errorf("Migrate() error = %v, want ErrDatabaseCorrupted", err)
	}
}

func TestMigrate_CreatesTables(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	for _, table := range []string{"trusted_vendors", "audit_sessions", "session_records"} {
		var count int
		err := store.db.QueryRow(`
			SELECT COUNT(*) FROM sqlite_master
			WHERE type='table' AND name=?
		`, table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s was not created", table)
		}
	}
}

func TestMigrate_NilContext(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	//nolint:staticcheck // nil context is the case under test
	if err := store.Migrate(nil); err != ErrNilContext {
		t.Errorf("Migrate(nil) error = %v, want %v", err, ErrNilContext)
	}
}
