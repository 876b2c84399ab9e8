package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/audithawk/internal/model"
)

func reviewSession() model.AuditSession {
	records := []model.TransactionRecord{
		{Index: 1, TransactionID: "T1", Amount: 500, Flagged: true, Status: model.StatusPending},
		{Index: 2, TransactionID: "T2", Amount: 20, Status: model.StatusPending},
		{Index: 3, TransactionID: "T3", Amount: 900, Flagged: true, Status: model.StatusPending},
	}
	return BuildSession("review.csv", records, fixedOptions("review"))
}

func statusOf(t *testing.T, records []model.TransactionRecord, index int) model.Status {
	t.Helper()
	for _, rec := range records {
		if rec.Index == index {
			return rec.Status
		}
	}
	t.Fatalf("record %d not found", index)
	return ""
}

func TestApplyDisposition(t *testing.T) {
	original := reviewSession()

	accepted, err := Accept(original, 3)
	require.NoError(t, err)

	assert.Equal(t, model.StatusAccepted, statusOf(t, accepted.Transactions, 3))
	assert.Equal(t, model.StatusAccepted, statusOf(t, accepted.Flagged, 3))
	assert.Equal(t, model.StatusPending, statusOf(t, accepted.Flagged, 1))

	// The input session is not modified.
	assert.Equal(t, model.StatusPending, statusOf(t, original.Transactions, 3))
	assert.Equal(t, model.StatusPending, statusOf(t, original.Flagged, 3))
}

func TestApplyDisposition_Idempotent(t *testing.T) {
	once, err := Accept(reviewSession(), 1)
	require.NoError(t, err)
	twice, err := Accept(once, 1)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestApplyDisposition_LatestWins(t *testing.T) {
	session, err := Accept(reviewSession(), 1)
	require.NoError(t, err)
	session, err = Reject(session, 1)
	require.NoError(t, err)

	assert.Equal(t, model.StatusRejected, statusOf(t, session.Transactions, 1))
	assert.Equal(t, model.StatusRejected, statusOf(t, session.Flagged, 1))
	// Rejected records stay in both sequences.
	assert.Len(t, session.Flagged, 2)
	assert.Len(t, session.Transactions, 3)
}

func TestApplyDisposition_UnflaggedRecord(t *testing.T) {
	session, err := Reject(reviewSession(), 2)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, statusOf(t, session.Transactions, 2))
	assert.Len(t, session.Flagged, 2)
}

func TestApplyDisposition_Errors(t *testing.T) {
	session := reviewSession()

	_, err := Accept(session, 42)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = ApplyDisposition(session, 1, model.Status("escalated"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
