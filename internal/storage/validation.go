// Package storage provides the data persistence layer for audithawk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/audithawk/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidSession = errors.New("invalid session")
	ErrInvalidRecord  = errors.New("invalid transaction record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSession checks a session before it is written. The flagged list
// must only reference indexes present in the full sequence.
func validateSession(session *model.AuditSession) error {
	if session == nil {
		return fmt.Errorf("%w: session", ErrNilParameter)
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidSession)
	}
	if session.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing creation time", ErrInvalidSession)
	}
	if session.RiskScore < 0 || session.RiskScore > 100 {
		return fmt.Errorf("%w: risk score %d out of range", ErrInvalidSession, session.RiskScore)
	}

	seen := make(map[int]bool, len(session.Transactions))
	for i := range session.Transactions {
		if err := validateRecord(&session.Transactions[i]); err != nil {
			return fmt.Errorf("transaction at position %d: %w", i, err)
		}
		index := session.Transactions[i].Index
		if seen[index] {
			return fmt.Errorf("%w: duplicate index %d", ErrInvalidRecord, index)
		}
		seen[index] = true
	}
	for _, rec := range session.Flagged {
		if !seen[rec.Index] {
			return fmt.Errorf("%w: flagged index %d not in transactions", ErrInvalidSession, rec.Index)
		}
	}
	return nil
}

func validateRecord(rec *model.TransactionRecord) error {
	if rec.Index < 1 {
		return fmt.Errorf("%w: index must be positive", ErrInvalidRecord)
	}
	if rec.TransactionID == "" {
		return fmt.Errorf("%w: missing transaction ID", ErrInvalidRecord)
	}
	if !rec.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, rec.Status)
	}
	return nil
}
