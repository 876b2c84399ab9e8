// Package audit turns evaluated records into sessions, keeps the live
// working set under review and derives the dashboard aggregates.
package audit

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/audithawk/internal/model"
)

// DateLayout formats a session's calendar date.
const DateLayout = "2006-01-02"

// BuildOptions carries everything BuildSession needs besides the records.
// Zero values fall back to time.Now, uuid.NewString and ModeRules.
type BuildOptions struct {
	Now       func() time.Time
	NewID     func() string
	Mode      model.AnalysisMode
	Threshold float64
}

// BuildSession aggregates an evaluated sequence into a session. It does not
// touch any state; records is copied, not retained.
func BuildSession(fileName string, records []model.TransactionRecord, opts BuildOptions) model.AuditSession {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	newID := uuid.NewString
	if opts.NewID != nil {
		newID = opts.NewID
	}
	mode := opts.Mode
	if mode == "" {
		mode = model.ModeRules
	}

	created := now()
	transactions := make([]model.TransactionRecord, len(records))
	copy(transactions, records)

	flagged := make([]model.TransactionRecord, 0)
	for _, rec := range transactions {
		if rec.Flagged {
			flagged = append(flagged, rec)
		}
	}

	return model.AuditSession{
		ID:           newID(),
		FileName:     fileName,
		CreatedAt:    created,
		Date:         created.Format(DateLayout),
		Mode:         mode,
		Threshold:    opts.Threshold,
		Transactions: transactions,
		Flagged:      flagged,
		RiskScore:    RiskScore(len(flagged), len(transactions)),
	}
}

// RiskScore is the flagged share as a whole percentage, 0 for an empty set.
func RiskScore(flagged, total int) int {
	if total <= 0 {
		return 0
	}
	if flagged < 0 {
		flagged = 0
	}
	if flagged > total {
		flagged = total
	}
	return int(math.Round(100 * float64(flagged) / float64(total)))
}
