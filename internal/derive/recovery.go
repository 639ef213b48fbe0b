package derive

import (
	"math"

	"github.com/ppiankov/foresight/internal/model"
)

// PhaseCount is the fixed length of a recovery timeline
const PhaseCount = 4

// TargetRecoveryShare is the share of the drop addressed by the final phase
const TargetRecoveryShare = 0.90

type phaseTemplate struct {
	title       string
	description string
	actions     []string
	share       float64 // cumulative share of the drop, strictly increasing
	lift        float64
	label       func(model.RiskLevel) string
}

var phaseTemplates = [PhaseCount]phaseTemplate{
	{
		title:       "Damage Control",
		description: "Acknowledge negative feedback publicly. Assign a response team to top complaints.",
		actions: []string{
			"Reply to high-engagement negative comments",
			"Flag recurring issues to product team",
			"Post a public statement or update if needed",
		},
		share: 0.15,
		lift:  0.05,
		label: func(r model.RiskLevel) string {
			if r == model.RiskHigh {
				return "Week 1"
			}
			return "Week 1-2"
		},
	},
	{
		title:       "Quick Fixes",
		description: "Ship fast-turnaround improvements. Update product listings, FAQs, and known issue pages.",
		actions: []string{
			"Fix most-complained bugs or UX issues",
			"Update product description to set correct expectations",
			"Send follow-up to affected customers",
		},
		share: 0.35,
		lift:  0.12,
		label: func(r model.RiskLevel) string {
			if r == model.RiskHigh {
				return "Week 2-3"
			}
			return "Week 3-4"
		},
	},
	{
		title:       "Product Improvements",
		description: "Implement deeper product or service improvements informed by sentiment themes.",
		actions: []string{
			"Release major update addressing root causes",
			"Launch customer satisfaction survey",
			"A/B test improved messaging and positioning",
		},
		share: 0.65,
		lift:  0.22,
		label: func(model.RiskLevel) string { return "Month 2-3" },
	},
	{
		title:       "Full Recovery",
		description: "Sentiment stabilises above baseline. Sales model risk level drops to Low.",
		actions: []string{
			"Monitor weekly sentiment; target < 20% negative",
			"Build loyalty program to sustain positive momentum",
			"Re-run the analysis to confirm recovery",
		},
		share: TargetRecoveryShare,
		lift:  0.30,
		label: func(r model.RiskLevel) string {
			if r == model.RiskLow {
				return "Month 2+"
			}
			return "Month 3-4"
		},
	},
}

// GenerateTimeline builds the four-phase recovery plan for a predicted drop.
// Only the labels depend on risk; the percentages depend on drop alone.
func GenerateTimeline(drop float64, risk model.RiskLevel) []model.RecoveryPhase {
	phases := make([]model.RecoveryPhase, 0, PhaseCount)
	for i, tpl := range phaseTemplates {
		cumulative := drop * tpl.share
		phases = append(phases, model.RecoveryPhase{
			Order:                        i + 1,
			Label:                        tpl.label(risk),
			Title:                        tpl.title,
			Description:                  tpl.description,
			Actions:                      append([]string(nil), tpl.actions...),
			CumulativeRecoveryPercentage: cumulative,
			DisplayPercentage:            int(math.Round(cumulative)),
			SentimentLiftEstimate:        tpl.lift,
			Tier:                         risk,
		})
	}
	return phases
}

// TargetRecovery is the cumulative recovery reached by the last phase
func TargetRecovery(drop float64) float64 {
	return drop * TargetRecoveryShare
}
