package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/audithawk/internal/common"
	"github.com/Veraticus/audithawk/internal/model"
)

// SaveSession writes a session and all of its records in one transaction.
// The flagged subsequence is rebuilt from the records' flagged column on read.
func (s *SQLiteStorage) SaveSession(ctx context.Context, session *model.AuditSession) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSession(session); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.saveSessionTx(ctx, tx, session); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) saveSessionTx(ctx context.Context, tx *sql.Tx, session *model.AuditSession) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_sessions (id, file_name, session_date, mode, threshold, risk_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, session.ID, session.FileName, session.Date, string(session.Mode),
		session.Threshold, session.RiskScore, session.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return fmt.Errorf("session %s: %w", session.ID, common.ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO session_records (
			session_id, record_index, transaction_id, date, merchant, category,
			account_id, amount, risk_score, flagged, reason, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range session.Transactions {
		_, err := stmt.ExecContext(ctx,
			session.ID, rec.Index, rec.TransactionID, rec.Date, rec.Merchant, rec.Category,
			rec.AccountID, rec.Amount, rec.RiskScore, rec.Flagged, string(rec.Reason), string(rec.Status),
		)
		if err != nil {
			return fmt.Errorf("failed to save record %d: %w", rec.Index, err)
		}
	}

	return nil
}

// GetSession loads one session with its records.
func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*model.AuditSession, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, session_date, mode, threshold, risk_score, created_at
		FROM audit_sessions
		WHERE id = ?
	`, id)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadRecords(ctx, s.db, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns sessions most-recent-first. A limit of zero or less
// returns every session.
func (s *SQLiteStorage) ListSessions(ctx context.Context, limit int) ([]model.AuditSession, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, file_name, session_date, mode, threshold, risk_score, created_at
		FROM audit_sessions
		ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}

	var sessions []model.AuditSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	// The single connection must be released before records are queried.
	_ = rows.Close()

	for i := range sessions {
		if err := s.loadRecords(ctx, s.db, &sessions[i]); err != nil {
			return nil, err
		}
	}

	return sessions, nil
}

// CountSessions returns the number of stored sessions.
func (s *SQLiteStorage) CountSessions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*model.AuditSession, error) {
	var session model.AuditSession
	var mode string
	err := row.Scan(
		&session.ID,
		&session.FileName,
		&session.Date,
		&mode,
		&session.Threshold,
		&session.RiskScore,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	session.Mode = model.AnalysisMode(mode)
	return &session, nil
}

func (s *SQLiteStorage) loadRecords(ctx context.Context, q queryable, session *model.AuditSession) error {
	rows, err := q.QueryContext(ctx, `
		SELECT record_index, transaction_id, date, merchant, category,
			account_id, amount, risk_score, flagged, reason, status
		FROM session_records
		WHERE session_id = ?
		ORDER BY record_index
	`, session.ID)
	if err != nil {
		return fmt.Errorf("failed to query records for session %s: %w", session.ID, err)
	}
	defer func() { _ = rows.Close() }()

	session.Transactions = []model.TransactionRecord{}
	session.Flagged = []model.TransactionRecord{}
	for rows.Next() {
		var rec model.TransactionRecord
		var reason, status string
		err := rows.Scan(
			&rec.Index,
			&rec.TransactionID,
			&rec.Date,
			&rec.Merchant,
			&rec.Category,
			&rec.AccountID,
			&rec.Amount,
			&rec.RiskScore,
			&rec.Flagged,
			&reason,
			&status,
		)
		if err != nil {
			return fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Reason = model.Reason(reason)
		rec.Status = model.Status(status)

		session.Transactions = append(session.Transactions, rec)
		if rec.Flagged {
			session.Flagged = append(session.Flagged, rec)
		}
	}

	return rows.Err()
}
