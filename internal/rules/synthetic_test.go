package rules

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/audithawk/internal/model"
)

func TestSyntheticBatch(t *testing.T) {
	records := SyntheticBatch(rand.New(rand.NewSource(1)), SyntheticBatchSize)
	require.Len(t, records, SyntheticBatchSize)

	for i, r := range records {
		assert.Equal(t, i+1, r.Index)
		assert.Equal(t, model.SyntheticTransactionID(i+1), r.TransactionID)
		assert.GreaterOrEqual(t, r.Amount, 10.0)
		assert.LessOrEqual(t, r.Amount, 10000.0)
		assert.Equal(t, model.StatusPending, r.Status)
	}
}

func TestSyntheticEvaluator(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ev, err := NewSyntheticEvaluator(NewTrustedVendorSet("Globex"), 5000, rng)
	require.NoError(t, err)
	assert.False(t, ev.Deterministic())
	assert.Equal(t, model.ModeSynthetic, ev.Mode())

	out := EvaluateAll(ev, SyntheticBatch(rng, SyntheticBatchSize), nil)
	require.Len(t, out, SyntheticBatchSize)

	for _, r := range out {
		assert.GreaterOrEqual(t, r.RiskScore, 0.0)
		assert.LessOrEqual(t, r.RiskScore, 1.0)
		if r.Merchant == "Globex" {
			assert.False(t, r.Flagged)
		}
		if r.Flagged {
			assert.Contains(t, []model.Reason{model.ReasonExceedsThreshold, model.ReasonSyntheticRiskFlag}, r.Reason)
		}
	}

	_, err = NewSyntheticEvaluator(nil, -5, rng)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}
