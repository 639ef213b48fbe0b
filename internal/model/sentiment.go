package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for analysis window dates
const DateLayout = "2006-01-02"

// DateRange is the analysis window sent to the upstream service
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// NewDateRange parses a start/end pair in DateLayout
func NewDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, &ValidationError{Field: "start_date", Reason: err.Error()}
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, &ValidationError{Field: "end_date", Reason: err.Error()}
	}
	if e.Before(s) {
		return DateRange{}, &ValidationError{Field: "end_date", Reason: "before start_date"}
	}
	return DateRange{Start: s, End: e}, nil
}

// StartString returns the start date in DateLayout
func (r DateRange) StartString() string { return r.Start.Format(DateLayout) }

// EndString returns the end date in DateLayout
func (r DateRange) EndString() string { return r.End.Format(DateLayout) }

// String renders the range as "start..end"
func (r DateRange) String() string {
	return r.StartString() + ".." + r.EndString()
}

// SentimentSummary is the aggregate sentiment returned by the analytics service
type SentimentSummary struct {
	AverageSentiment   float64   `json:"average_sentiment"`   // [-1, 1]
	NegativePercentage float64   `json:"negative_percentage"` // [0, 100]
	TotalPosts         int       `json:"total_posts"`         // >= 0
	DateRange          DateRange `json:"date_range"`
}

// RiskLevel is the upstream-assigned severity of the predicted sales impact.
// It is authoritative and never recomputed locally.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ParseRiskLevel accepts the upstream label case-insensitively
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	default:
		return "", &ValidationError{Field: "risk_level", Reason: fmt.Sprintf("unknown risk level %q", s)}
	}
}

// Valid reports whether r is one of the three known tiers
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// SalesLossPrediction is the prediction returned by the upstream model
type SalesLossPrediction struct {
	PredictedDropPercentage float64   `json:"predicted_drop_percentage"` // [0, 100]
	LossProbability         float64   `json:"loss_probability"`          // [0, 1]
	Confidence              float64   `json:"confidence"`                // [0, 1]
	RiskLevel               RiskLevel `json:"risk_level"`
	Explanation             string    `json:"explanation"`
}
