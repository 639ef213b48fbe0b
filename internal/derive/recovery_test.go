package derive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/foresight/internal/model"
)

var allRisks = []model.RiskLevel{model.RiskLow, model.RiskMedium, model.RiskHigh}

func TestGenerateTimeline_Scenario(t *testing.T) {
	phases := GenerateTimeline(20, model.RiskHigh)
	require.Len(t, phases, PhaseCount)

	got := make([]int, len(phases))
	for i, p := range phases {
		got[i] = p.DisplayPercentage
	}
	assert.Equal(t, []int{3, 7, 13, 18}, got)

	labels := []string{phases[0].Label, phases[1].Label, phases[2].Label, phases[3].Label}
	assert.Equal(t, []string{"Week 1", "Week 2-3", "Month 2-3", "Month 3-4"}, labels)
}

func TestGenerateTimeline_LabelsByRisk(t *testing.T) {
	low := GenerateTimeline(10, model.RiskLow)
	assert.Equal(t, "Week 1-2", low[0].Label)
	assert.Equal(t, "Week 3-4", low[1].Label)
	assert.Equal(t, "Month 2+", low[3].Label)

	medium := GenerateTimeline(10, model.RiskMedium)
	assert.Equal(t, "Month 3-4", medium[3].Label)
}

func TestGenerateTimeline_RiskDoesNotChangeNumbers(t *testing.T) {
	base := GenerateTimeline(37.5, model.RiskLow)
	for _, risk := range allRisks {
		phases := GenerateTimeline(37.5, risk)
		for i := range phases {
			assert.Equal(t, base[i].CumulativeRecoveryPercentage, phases[i].CumulativeRecoveryPercentage)
			assert.Equal(t, base[i].SentimentLiftEstimate, phases[i].SentimentLiftEstimate)
			assert.Equal(t, risk, phases[i].Tier)
		}
	}
}

func TestGenerateTimeline_MonotonicAndBounded(t *testing.T) {
	for drop := 0.0; drop <= 100; drop += 0.5 {
		for _, risk := range allRisks {
			phases := GenerateTimeline(drop, risk)
			require.Len(t, phases, PhaseCount)

			prev := 0.0
			for i, p := range phases {
				assert.Equal(t, i+1, p.Order)
				assert.GreaterOrEqual(t, p.CumulativeRecoveryPercentage, prev, "drop=%v phase=%d", drop, p.Order)
				assert.LessOrEqual(t, p.CumulativeRecoveryPercentage, drop, "drop=%v phase=%d", drop, p.Order)
				prev = p.CumulativeRecoveryPercentage
			}
		}
	}
}

func TestGenerateTimeline_ZeroDrop(t *testing.T) {
	for _, p := range GenerateTimeline(0, model.RiskMedium) {
		assert.Zero(t, p.CumulativeRecoveryPercentage)
		assert.Zero(t, p.DisplayPercentage)
		assert.False(t, math.IsNaN(p.CumulativeRecoveryPercentage))
	}
}

func TestGenerateTimeline_Deterministic(t *testing.T) {
	a := GenerateTimeline(42, model.RiskHigh)
	b := GenerateTimeline(42, model.RiskHigh)
	assert.Equal(t, a, b)

	// Actions are copied per call
	a[0].Actions[0] = "changed"
	c := GenerateTimeline(42, model.RiskHigh)
	assert.NotEqual(t, "changed", c[0].Actions[0])
}

func TestTargetRecovery(t *testing.T) {
	assert.InDelta(t, 18, TargetRecovery(20), 1e-9)
}
