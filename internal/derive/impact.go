package derive

import (
	"fmt"
	"math"

	"github.com/ppiankov/foresight/internal/model"
)

var impactShares = []struct {
	period string
	share  float64
}{
	{"Current", 0},
	{"Month 1", 0.3},
	{"Month 2", 0.6},
	{"Month 3", 1.0},
}

// ProjectImpact returns the revenue projection, indexed to a baseline of 100,
// if the predicted drop materializes linearly over three months.
func ProjectImpact(drop float64) []model.ImpactPoint {
	points := make([]model.ImpactPoint, len(impactShares))
	for i, s := range impactShares {
		points[i] = model.ImpactPoint{
			Period:    s.period,
			Baseline:  100,
			Projected: math.Max(0, 100-drop*s.share),
		}
	}
	return points
}

// Checklist evaluates the six sentiment health metrics
func Checklist(s model.SentimentSummary) []model.ChecklistItem {
	return []model.ChecklistItem{
		{Label: "Positive sentiment trend", Passed: s.NegativePercentage < 20},
		{Label: "Sufficient comment volume", Passed: s.TotalPosts > 30},
		{Label: "Low negative comment ratio", Passed: s.NegativePercentage < 30},
		{Label: "Healthy sentiment average", Passed: s.AverageSentiment > 0},
		{Label: "Engagement is active", Passed: s.TotalPosts > 50},
		{Label: "Low risk profile", Passed: s.NegativePercentage < 25},
	}
}

// Highlights returns the deterministic one-line insights for a report
func Highlights(s model.SentimentSummary, p model.SalesLossPrediction) []string {
	lines := []string{
		fmt.Sprintf("Average sentiment: %.2f", s.AverageSentiment),
		fmt.Sprintf("Negative comment share: %.1f%%", s.NegativePercentage),
		fmt.Sprintf("Predicted sales drop: %.1f%% (%s risk, %.0f%% loss probability)",
			p.PredictedDropPercentage, p.RiskLevel, p.LossProbability*100),
	}
	if s.TotalPosts > 50 {
		lines = append(lines, fmt.Sprintf("Analysis based on %d+ comments. Confidence level is high.", s.TotalPosts))
	}
	return lines
}
