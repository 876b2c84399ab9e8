package model

import "time"

// TrustedVendor is an allowlisted merchant. Transactions from a trusted vendor
// are never flagged.
type TrustedVendor struct {
	AddedAt time.Time `json:"added_at"`
	Name    string    `json:"name"`
}
