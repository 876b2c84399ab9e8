package rules

import (
	"math"
	"math/rand"

	"github.com/Veraticus/audithawk/internal/model"
)

// SyntheticBatchSize is the number of records produced for a demo run.
const SyntheticBatchSize = 50

// SyntheticRiskCutoff is the random signal at or above which a synthetic
// record is flagged.
const SyntheticRiskCutoff = 0.9

var syntheticMerchants = []string{
	"Acme Supplies", "Globex", "Initech", "Umbrella Corp", "Stark Industries",
	"Wayne Enterprises", "Hooli", "Vandelay Imports",
}

var syntheticCategories = []string{"Office", "Travel", "Software", "Hardware", "Consulting"}

// SyntheticEvaluator is the demo mode used when no file is supplied. It adds
// a uniformly random risk signal on top of the threshold rule, so its output
// is not reproducible.
type SyntheticEvaluator struct {
	rng       *rand.Rand
	vendors   *TrustedVendorSet
	threshold float64
}

// NewSyntheticEvaluator validates threshold and draws from rng.
func NewSyntheticEvaluator(vendors *TrustedVendorSet, threshold float64, rng *rand.Rand) (*SyntheticEvaluator, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if vendors == nil {
		vendors = NewTrustedVendorSet()
	}
	return &SyntheticEvaluator{rng: rng, vendors: vendors.Clone(), threshold: threshold}, nil
}

// Evaluate draws a risk signal and flags on amount or signal.
func (e *SyntheticEvaluator) Evaluate(rec model.TransactionRecord) model.TransactionRecord {
	rec.RiskScore = math.Round(e.rng.Float64()*100) / 100

	flagged, reason := decide(e.vendors, e.threshold, rec)
	if !flagged && reason == model.ReasonNone && rec.RiskScore >= SyntheticRiskCutoff {
		flagged, reason = true, model.ReasonSyntheticRiskFlag
	}
	rec.Flagged = flagged
	rec.Reason = reason
	return rec
}

// Deterministic is false: the risk signal is random.
func (e *SyntheticEvaluator) Deterministic() bool { return false }

// Mode reports ModeSynthetic.
func (e *SyntheticEvaluator) Mode() model.AnalysisMode { return model.ModeSynthetic }

// SyntheticBatch generates n demo records with random amounts between 10 and
// 10,000.
func SyntheticBatch(rng *rand.Rand, n int) []model.TransactionRecord {
	records := make([]model.TransactionRecord, n)
	for i := range records {
		index := i + 1
		records[i] = model.TransactionRecord{
			Index:         index,
			TransactionID: model.SyntheticTransactionID(index),
			Amount:        math.Round((10+rng.Float64()*9990)*100) / 100,
			Merchant:      syntheticMerchants[rng.Intn(len(syntheticMerchants))],
			Category:      syntheticCategories[rng.Intn(len(syntheticCategories))],
			AccountID:     "DEMO-001",
			Status:        model.StatusPending,
		}
	}
	return records
}
