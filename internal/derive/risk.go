package derive

import (
	"math"

	"github.com/ppiankov/foresight/internal/model"
)

const (
	confidenceSaturationPosts = 50.0
	confidenceFloor           = 0.3
)

// Engagement tiers
const (
	EngagementLow    = "low"
	EngagementMedium = "medium"
	EngagementHigh   = "high"
)

// Drop severity bands
const (
	SeverityNormal   = "normal"
	SeverityElevated = "elevated"
	SeverityCritical = "critical"
)

// Project derives health, confidence and engagement scores
func Project(sentiment model.SentimentSummary, prediction model.SalesLossPrediction) model.Scores {
	return model.Scores{
		Health:          clamp(100-prediction.PredictedDropPercentage, 0, 100),
		SentimentHealth: clamp(100-sentiment.NegativePercentage, 0, 100),
		ConfidenceScore: ConfidenceScore(sentiment.TotalPosts),
		EngagementTier:  EngagementTier(sentiment.TotalPosts),
		DropSeverity:    DropSeverity(prediction.PredictedDropPercentage),
	}
}

// ConfidenceScore is volume based: 30 at or below 15 posts, saturating at 100
// from 50 posts.
func ConfidenceScore(totalPosts int) int {
	ratio := clamp(float64(totalPosts)/confidenceSaturationPosts, confidenceFloor, 1.0)
	return int(math.Round(ratio * 100))
}

// EngagementTier buckets post volume
func EngagementTier(totalPosts int) string {
	switch {
	case totalPosts > 100:
		return EngagementHigh
	case totalPosts > 50:
		return EngagementMedium
	default:
		return EngagementLow
	}
}

// DropSeverity bands the predicted drop for display
func DropSeverity(drop float64) string {
	switch {
	case drop > 30:
		return SeverityCritical
	case drop > 15:
		return SeverityElevated
	default:
		return SeverityNormal
	}
}

// Advice returns the headline guidance for a risk tier
func Advice(risk model.RiskLevel) model.RiskAdvice {
	switch risk {
	case model.RiskHigh:
		return model.RiskAdvice{
			Headline:       "Immediate action needed",
			Recommendation: "Engage with negative reviewers, address common complaints, and consider product improvements.",
		}
	case model.RiskMedium:
		return model.RiskAdvice{
			Headline:       "Monitor closely",
			Recommendation: "Continue monitoring sentiment trends and maintain customer engagement quality.",
		}
	default:
		return model.RiskAdvice{
			Headline:       "Low concern",
			Recommendation: "Continue monitoring sentiment trends and maintain customer engagement quality.",
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
