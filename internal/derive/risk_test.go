package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/foresight/internal/model"
)

func TestConfidenceScore_Scenario(t *testing.T) {
	assert.Equal(t, 30, ConfidenceScore(10))
	assert.Equal(t, 100, ConfidenceScore(50))
	assert.Equal(t, 100, ConfidenceScore(200))
	assert.Equal(t, 30, ConfidenceScore(0))
	assert.Equal(t, 50, ConfidenceScore(25))
}

func TestConfidenceScore_Monotonic(t *testing.T) {
	prev := ConfidenceScore(0)
	for posts := 1; posts <= 500; posts++ {
		got := ConfidenceScore(posts)
		assert.GreaterOrEqual(t, got, prev, "posts=%d", posts)
		assert.GreaterOrEqual(t, got, 30)
		assert.LessOrEqual(t, got, 100)
		prev = got
	}
}

func TestEngagementTier(t *testing.T) {
	tests := []struct {
		posts int
		want  string
	}{
		{0, EngagementLow},
		{50, EngagementLow},
		{51, EngagementMedium},
		{100, EngagementMedium},
		{101, EngagementHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EngagementTier(tt.posts), "posts=%d", tt.posts)
	}
}

func TestProject(t *testing.T) {
	sentiment := model.SentimentSummary{AverageSentiment: -0.2, NegativePercentage: 40, TotalPosts: 75}
	prediction := model.SalesLossPrediction{PredictedDropPercentage: 20, RiskLevel: model.RiskHigh}

	scores := Project(sentiment, prediction)

	assert.Equal(t, 80.0, scores.Health)
	assert.Equal(t, 60.0, scores.SentimentHealth)
	assert.Equal(t, 100, scores.ConfidenceScore)
	assert.Equal(t, EngagementMedium, scores.EngagementTier)
	assert.Equal(t, SeverityElevated, scores.DropSeverity)
}

func TestProject_Clamps(t *testing.T) {
	scores := Project(
		model.SentimentSummary{NegativePercentage: 120},
		model.SalesLossPrediction{PredictedDropPercentage: -5},
	)
	assert.Equal(t, 100.0, scores.Health)
	assert.Equal(t, 0.0, scores.SentimentHealth)
}

func TestDropSeverity(t *testing.T) {
	assert.Equal(t, SeverityNormal, DropSeverity(15))
	assert.Equal(t, SeverityElevated, DropSeverity(15.1))
	assert.Equal(t, SeverityElevated, DropSeverity(30))
	assert.Equal(t, SeverityCritical, DropSeverity(30.5))
}

func TestAdvice(t *testing.T) {
	assert.Equal(t, "Immediate action needed", Advice(model.RiskHigh).Headline)
	assert.Equal(t, "Monitor closely", Advice(model.RiskMedium).Headline)
	assert.Equal(t, "Low concern", Advice(model.RiskLow).Headline)
}
