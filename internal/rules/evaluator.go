package rules

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/audithawk/internal/model"
)

// ErrInvalidThreshold is returned for a missing, non-numeric or non-positive
// threshold. It is raised before any row is evaluated.
var ErrInvalidThreshold = errors.New("threshold must be a positive number")

// Evaluator decides the flag and reason for one record.
type Evaluator interface {
	// Evaluate returns rec with Flagged, Reason and RiskScore filled in.
	Evaluate(rec model.TransactionRecord) model.TransactionRecord
	// Deterministic reports whether identical inputs always give identical output.
	Deterministic() bool
	// Mode names the evaluator for the session it produces.
	Mode() model.AnalysisMode
}

// ValidateThreshold checks a threshold supplied for one analysis run.
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return nil
}

// ParseThreshold parses and validates a threshold typed by a user.
func ParseThreshold(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: none given", ErrInvalidThreshold)
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidThreshold, trimmed)
	}
	if err := ValidateThreshold(v); err != nil {
		return 0, err
	}
	return v, nil
}

// ThresholdEvaluator flags records whose amount exceeds Threshold unless the
// merchant is trusted.
type ThresholdEvaluator struct {
	vendors   *TrustedVendorSet
	threshold float64
}

// NewThresholdEvaluator validates threshold and snapshots vendors.
func NewThresholdEvaluator(vendors *TrustedVendorSet, threshold float64) (*ThresholdEvaluator, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if vendors == nil {
		vendors = NewTrustedVendorSet()
	}
	return &ThresholdEvaluator{vendors: vendors.Clone(), threshold: threshold}, nil
}

// Threshold returns the amount above which records are flagged.
func (e *ThresholdEvaluator) Threshold() float64 { return e.threshold }

// Evaluate applies, in order: trusted vendor, amount above threshold, clean.
func (e *ThresholdEvaluator) Evaluate(rec model.TransactionRecord) model.TransactionRecord {
	flagged, reason := decide(e.vendors, e.threshold, rec)
	rec.Flagged = flagged
	rec.Reason = reason
	return rec
}

// Deterministic is always true for the threshold rule.
func (e *ThresholdEvaluator) Deterministic() bool { return true }

// Mode reports ModeRules.
func (e *ThresholdEvaluator) Mode() model.AnalysisMode { return model.ModeRules }

func decide(vendors *TrustedVendorSet, threshold float64, rec model.TransactionRecord) (bool, model.Reason) {
	switch {
	case vendors.Contains(rec.Merchant):
		return false, model.ReasonTrustedVendor
	case rec.Amount > threshold:
		return true, model.ReasonExceedsThreshold
	default:
		return false, model.ReasonNone
	}
}

// EvaluateAll evaluates every record into a new slice; records is left as is.
// onEach, when non-nil, is called after each record (progress reporting).
func EvaluateAll(ev Evaluator, records []model.TransactionRecord, onEach func()) []model.TransactionRecord {
	out := make([]model.TransactionRecord, len(records))
	for i, rec := range records {
		out[i] = ev.Evaluate(rec)
		if onEach != nil {
			onEach()
		}
	}
	return out
}
