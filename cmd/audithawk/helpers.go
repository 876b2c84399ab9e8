package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/audithawk/internal/audit"
	"github.com/Veraticus/audithawk/internal/config"
	"github.com/Veraticus/audithawk/internal/service"
	"github.com/Veraticus/audithawk/internal/storage"
)

const (
	defaultDatabasePath = storage.MemoryPath
	defaultServerAddr   = ":8080"
)

// initStorage opens and migrates the configured database.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = defaultDatabasePath
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// closeStorage logs rather than returns close failures; the command has
// already produced its result.
func closeStorage(store service.Storage) {
	if err := store.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

// initState builds the application state, seeding vendors from config and
// any extra names given on the command line.
func initState(ctx context.Context, store service.Storage, extra ...string) (*audit.State, error) {
	vendors := append(viper.GetStringSlice("vendors.trusted"), extra...)
	state, err := audit.NewState(ctx, store, audit.Options{TrustedVendors: vendors})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit state: %w", err)
	}
	return state, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
