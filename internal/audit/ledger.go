package audit

import (
	"errors"
	"fmt"

	"github.com/Veraticus/audithawk/internal/model"
)

// Ledger errors.
var (
	ErrRecordNotFound = errors.New("no record with that index in the session")
	ErrInvalidStatus  = errors.New("invalid disposition status")
)

// ApplyDisposition returns a copy of session with the record at index set to
// status in both the full and flagged sequences. Any record may be re-decided;
// the flagged sequence is never re-filtered.
func ApplyDisposition(session model.AuditSession, index int, status model.Status) (model.AuditSession, error) {
	if !status.Valid() {
		return session, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	found := false
	for i := range session.Transactions {
		if session.Transactions[i].Index == index {
			found = true
			break
		}
	}
	if !found {
		return session, fmt.Errorf("%w: %d", ErrRecordNotFound, index)
	}

	out := *session.Clone()
	for i := range out.Transactions {
		if out.Transactions[i].Index == index {
			out.Transactions[i].Status = status
		}
	}
	for i := range out.Flagged {
		if out.Flagged[i].Index == index {
			out.Flagged[i].Status = status
		}
	}
	return out, nil
}

// Accept marks the record at index accepted.
func Accept(session model.AuditSession, index int) (model.AuditSession, error) {
	return ApplyDisposition(session, index, model.StatusAccepted)
}

// Reject marks the record at index rejected.
func Reject(session model.AuditSession, index int) (model.AuditSession, error) {
	return ApplyDisposition(session, index, model.StatusRejected)
}
