package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/audithawk/internal/common"
	"github.com/Veraticus/audithawk/internal/model"
)

// AddTrustedVendor inserts a vendor into the allowlist. Names compare
// case-insensitively; a duplicate returns common.ErrDuplicateEntry.
func (s *SQLiteStorage) AddTrustedVendor(ctx context.Context, name string) (*model.TrustedVendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	vendor := &model.TrustedVendor{
		Name:    strings.TrimSpace(name),
		AddedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trusted_vendors (name, added_at)
		VALUES (?, ?)
	`, vendor.Name, vendor.AddedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("vendor %q: %w", vendor.Name, common.ErrDuplicateEntry)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add trusted vendor: %w", err)
	}

	return vendor, nil
}

// RemoveTrustedVendor deletes a vendor, matching the name case-insensitively.
func (s *SQLiteStorage) RemoveTrustedVendor(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM trusted_vendors WHERE name = ?
	`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("failed to remove trusted vendor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return common.ErrNotFound
	}

	return nil
}

// ListTrustedVendors returns every vendor in insertion order.
func (s *SQLiteStorage) ListTrustedVendors(ctx context.Context) ([]model.TrustedVendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listTrustedVendorsTx(ctx, s.db)
}

func (s *SQLiteStorage) listTrustedVendorsTx(ctx context.Context, q queryable) ([]model.TrustedVendor, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT name, added_at
		FROM trusted_vendors
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trusted vendors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var vendors []model.TrustedVendor
	for rows.Next() {
		var vendor model.TrustedVendor
		if err := rows.Scan(&vendor.Name, &vendor.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trusted vendor: %w", err)
		}
		vendors = append(vendors, vendor)
	}

	return vendors, rows.Err()
}
