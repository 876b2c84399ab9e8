package model

import "time"

// AnalysisMode identifies which evaluator produced a session.
type AnalysisMode string

// Analysis modes.
const (
	ModeRules     AnalysisMode = "rules"
	ModeSynthetic AnalysisMode = "synthetic"
)

// AuditSession is the result of one ingestion and evaluation pass.
type AuditSession struct {
	CreatedAt    time.Time           `json:"created_at"`
	ID           string              `json:"id"`
	FileName     string              `json:"file_name"`
	Date         string              `json:"date"`
	Mode         AnalysisMode        `json:"mode"`
	Transactions []TransactionRecord `json:"transactions"`
	Flagged      []TransactionRecord `json:"flagged"`
	Threshold    float64             `json:"threshold"`
	RiskScore    int                 `json:"risk_score"`
}

// Clone returns a deep copy so that disposition changes on the copy never
// reach the original.
func (s *AuditSession) Clone() *AuditSession {
	if s == nil {
		return nil
	}
	c := *s
	c.Transactions = append([]TransactionRecord(nil), s.Transactions...)
	c.Flagged = append([]TransactionRecord(nil), s.Flagged...)
	return &c
}

// Summary holds the dashboard aggregates for a session. It is derived on
// demand and never stored.
type Summary struct {
	TotalTransactions int     `json:"total_transactions"`
	FraudCount        int     `json:"fraud_count"`
	LegitimateCount   int     `json:"legitimate_count"`
	PendingCount      int     `json:"pending_count"`
	AcceptedCount     int     `json:"accepted_count"`
	RejectedCount     int     `json:"rejected_count"`
	RiskScore         int     `json:"risk_score"`
	AvgFlagValue      int     `json:"avg_flag_value"`
	TotalAmount       float64 `json:"total_amount"`
	AvgAmount         float64 `json:"avg_amount"`
	MinAmount         float64 `json:"min_amount"`
	MaxAmount         float64 `json:"max_amount"`
}
