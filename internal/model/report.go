package model

import "time"

// DistributionSource records where a sentiment distribution came from
type DistributionSource string

const (
	SourceUpstream  DistributionSource = "upstream"  // measured per-category breakdown
	SourceEstimated DistributionSource = "estimated" // synthesized from negative_percentage
)

// SentimentDistribution is a three-way split in percent; the three parts sum to 100
type SentimentDistribution struct {
	Negative float64            `json:"negative"`
	Neutral  float64            `json:"neutral"`
	Positive float64            `json:"positive"`
	Source   DistributionSource `json:"source"`
}

// Sum returns negative + neutral + positive
func (d SentimentDistribution) Sum() float64 {
	return d.Negative + d.Neutral + d.Positive
}

// RecoveryPhase is one step of the recovery plan
type RecoveryPhase struct {
	Order                        int       `json:"order"` // 1..4
	Label                        string    `json:"label"` // time window, e.g. "Week 1-2"
	Title                        string    `json:"title"`
	Description                  string    `json:"description"`
	Actions                      []string  `json:"actions"`
	CumulativeRecoveryPercentage float64   `json:"cumulative_recovery_percentage"` // share of the drop addressed so far
	DisplayPercentage            int       `json:"display_percentage"`             // rounded CumulativeRecoveryPercentage
	SentimentLiftEstimate        float64   `json:"sentiment_lift_estimate"`        // expected avg score lift
	Tier                         RiskLevel `json:"tier"`                           // risk tier the labels were chosen for
}

// Scores holds the values derived from prediction and sentiment signals
type Scores struct {
	Health          float64 `json:"health"`           // 100 - predicted drop
	SentimentHealth float64 `json:"sentiment_health"` // 100 - negative share
	ConfidenceScore int     `json:"confidence_score"` // volume-based, [30, 100]
	EngagementTier  string  `json:"engagement_tier"`  // "low", "medium", "high"
	DropSeverity    string  `json:"drop_severity"`    // "normal", "elevated", "critical"
}

// ImpactPoint is one point of the revenue impact projection, indexed to 100
type ImpactPoint struct {
	Period    string  `json:"period"`
	Baseline  float64 `json:"baseline"`
	Projected float64 `json:"projected"`
}

// EstimatedCounts converts the distribution back into post counts
type EstimatedCounts struct {
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Positive int `json:"positive"`
	Total    int `json:"total"`
}

// ChecklistItem is a single pass/fail health metric
type ChecklistItem struct {
	Label  string `json:"label"`
	Passed bool   `json:"passed"`
}

// RiskAdvice is the headline guidance attached to a risk tier
type RiskAdvice struct {
	Headline       string `json:"headline"`
	Recommendation string `json:"recommendation"`
}

// Narrative contains an optional LLM-written summary.
// It is attached after assembly and never affects any numeric field.
type Narrative struct {
	Enabled  bool     `json:"enabled"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	Text     string   `json:"text,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ReportViewModel is the complete, internally consistent report for one
// product/brand pair. A new value supersedes the previous one; it is never
// mutated after assembly.
type ReportViewModel struct {
	ID          string    `json:"id"`
	Product     string    `json:"product"`
	Brand       string    `json:"brand"`
	Platform    string    `json:"platform"`
	GeneratedAt time.Time `json:"generated_at"`

	Sentiment    SentimentSummary      `json:"sentiment"`
	Prediction   SalesLossPrediction   `json:"prediction"`
	Distribution SentimentDistribution `json:"distribution"`
	Counts       *EstimatedCounts      `json:"estimated_counts,omitempty"` // nil for upstream distributions

	Scores         Scores          `json:"scores"`
	Advice         RiskAdvice      `json:"advice"`
	Recovery       []RecoveryPhase `json:"recovery"`
	TargetRecovery float64         `json:"target_recovery"`
	Impact         []ImpactPoint   `json:"impact_projection"`
	Checklist      []ChecklistItem `json:"checklist"`
	Highlights     []string        `json:"highlights"`

	Narrative *Narrative `json:"narrative,omitempty"`
}

// Clone returns a deep copy so callers cannot alias the stored report
func (r *ReportViewModel) Clone() *ReportViewModel {
	if r == nil {
		return nil
	}
	c := *r
	c.Recovery = make([]RecoveryPhase, len(r.Recovery))
	for i, p := range r.Recovery {
		p.Actions = append([]string(nil), p.Actions...)
		c.Recovery[i] = p
	}
	if r.Counts != nil {
		counts := *r.Counts
		c.Counts = &counts
	}
	c.Impact = append([]ImpactPoint(nil), r.Impact...)
	c.Checklist = append([]ChecklistItem(nil), r.Checklist...)
	c.Highlights = append([]string(nil), r.Highlights...)
	if r.Narrative != nil {
		n := *r.Narrative
		n.Warnings = append([]string(nil), r.Narrative.Warnings...)
		c.Narrative = &n
	}
	return &c
}
