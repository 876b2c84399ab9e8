package audit

import (
	"math"

	"github.com/Veraticus/audithawk/internal/model"
)

// Summarize derives the dashboard aggregates. Rejected records are left out
// of the fraud count at view time; the session itself is not changed.
func Summarize(session model.AuditSession) model.Summary {
	summary := model.Summary{
		TotalTransactions: len(session.Transactions),
		RiskScore:         session.RiskScore,
	}

	var fraudTotal float64
	for _, rec := range session.Flagged {
		switch rec.Status {
		case model.StatusAccepted:
			summary.AcceptedCount++
		case model.StatusRejected:
			summary.RejectedCount++
			continue
		default:
			summary.PendingCount++
		}
		summary.FraudCount++
		fraudTotal += rec.Amount
	}
	summary.LegitimateCount = summary.TotalTransactions - summary.FraudCount

	if summary.FraudCount > 0 {
		summary.AvgFlagValue = int(math.Round(fraudTotal / float64(summary.FraudCount)))
	}

	for i, rec := range session.Transactions {
		summary.TotalAmount += rec.Amount
		if i == 0 || rec.Amount < summary.MinAmount {
			summary.MinAmount = rec.Amount
		}
		if i == 0 || rec.Amount > summary.MaxAmount {
			summary.MaxAmount = rec.Amount
		}
	}
	if summary.TotalTransactions > 0 {
		summary.AvgAmount = summary.TotalAmount / float64(summary.TotalTransactions)
	}

	return summary
}
