// Package model defines the core domain models used throughout the application.
package model

import "fmt"

// Reason explains why a record was or was not flagged. It is informational only;
// Flagged is the authoritative signal.
type Reason string

// Reason codes emitted by the evaluators.
const (
	ReasonNone              Reason = ""
	ReasonExceedsThreshold  Reason = "Exceeds Threshold"
	ReasonTrustedVendor     Reason = "Trusted Vendor"
	ReasonSyntheticRiskFlag Reason = "ML Risk Signal"
)

// Status is the review disposition of a record.
type Status string

// Disposition states. Every record starts pending.
const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known disposition.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// TransactionRecord is a single parsed row of an audit input.
type TransactionRecord struct {
	TransactionID string  `json:"transaction_id"`
	Date          string  `json:"date"`
	Merchant      string  `json:"merchant"`
	Category      string  `json:"category"`
	AccountID     string  `json:"account_id"`
	Reason        Reason  `json:"reason"`
	Status        Status  `json:"status"`
	Amount        float64 `json:"amount"`
	RiskScore     float64 `json:"risk_score"`
	Index         int     `json:"index"`
	Flagged       bool    `json:"flagged"`
}

// SyntheticTransactionID builds the identifier used when a source row has none.
func SyntheticTransactionID(index int) string {
	return fmt.Sprintf("TX-%d", index)
}
