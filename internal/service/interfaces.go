// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/audithawk/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Trusted vendor operations
	AddTrustedVendor(ctx context.Context, name string) (*model.TrustedVendor, error)
	RemoveTrustedVendor(ctx context.Context, name string) error
	ListTrustedVendors(ctx context.Context) ([]model.TrustedVendor, error)

	// Session history operations
	SaveSession(ctx context.Context, session *model.AuditSession) error
	GetSession(ctx context.Context, id string) (*model.AuditSession, error)
	ListSessions(ctx context.Context, limit int) ([]model.AuditSession, error)
	CountSessions(ctx context.Context) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
