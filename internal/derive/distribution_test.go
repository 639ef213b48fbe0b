package derive

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/foresight/internal/model"
)

func TestEstimateDistribution_Scenario(t *testing.T) {
	dist, err := EstimateDistribution(40)
	require.NoError(t, err)

	assert.InDelta(t, 40, dist.Negative, 1e-9)
	assert.InDelta(t, 24, dist.Positive, 1e-9)
	assert.InDelta(t, 36, dist.Neutral, 1e-9)
	assert.Equal(t, model.SourceEstimated, dist.Source)
}

func TestEstimateDistribution_SumsTo100(t *testing.T) {
	for neg := 0.0; neg <= 100; neg += 0.25 {
		dist, err := EstimateDistribution(neg)
		require.NoError(t, err)

		assert.InDelta(t, 100, dist.Sum(), 1e-9, "negative=%v", neg)
		for _, v := range []float64{dist.Negative, dist.Neutral, dist.Positive} {
			assert.GreaterOrEqual(t, v, 0.0, "negative=%v", neg)
			assert.LessOrEqual(t, v, 100.0, "negative=%v", neg)
		}
	}
}

func TestEstimateDistribution_Bounds(t *testing.T) {
	dist, err := EstimateDistribution(0)
	require.NoError(t, err)
	assert.InDelta(t, 40, dist.Positive, 1e-9)
	assert.InDelta(t, 60, dist.Neutral, 1e-9)

	dist, err = EstimateDistribution(100)
	require.NoError(t, err)
	assert.Zero(t, dist.Positive)
	assert.Zero(t, dist.Neutral)
}

func TestEstimateDistribution_OutOfRange(t *testing.T) {
	for _, neg := range []float64{-0.1, 100.5, math.NaN(), math.Inf(1)} {
		_, err := EstimateDistribution(neg)
		var ve *model.ValidationError
		require.True(t, errors.As(err, &ve), "negative=%v", neg)
		assert.Equal(t, "negative_percentage", ve.Field)
	}
}

func TestDistributionFromCounts(t *testing.T) {
	dist, ok := DistributionFromCounts(25, 50, 25)
	require.True(t, ok)
	assert.Equal(t, model.SourceUpstream, dist.Source)
	assert.InDelta(t, 25, dist.Negative, 1e-9)
	assert.InDelta(t, 50, dist.Neutral, 1e-9)
	assert.InDelta(t, 25, dist.Positive, 1e-9)

	dist, ok = DistributionFromCounts(1, 1, 1)
	require.True(t, ok)
	assert.InDelta(t, 100, dist.Sum(), 1e-9)

	_, ok = DistributionFromCounts(0, 0, 0)
	assert.False(t, ok)

	_, ok = DistributionFromCounts(-1, 2, 3)
	assert.False(t, ok)
}

func TestEstimateCounts(t *testing.T) {
	dist, err := EstimateDistribution(40)
	require.NoError(t, err)

	counts := EstimateCounts(dist, 200)
	assert.Equal(t, model.EstimatedCounts{Negative: 80, Neutral: 72, Positive: 48, Total: 200}, counts)

	assert.Equal(t, model.EstimatedCounts{}, EstimateCounts(dist, 0))
}
