// Package derive turns sparse upstream signals into the derived values of a
// report. Every function here is pure and safe for concurrent use.
package derive

import (
	"fmt"
	"math"

	"github.com/ppiankov/foresight/internal/model"
)

// positiveShare is the fraction of non-negative posts assumed positive when
// no per-category breakdown is available.
const positiveShare = 0.4

// EstimateDistribution synthesizes a three-way split from the negative share.
// It is a fallback for when upstream supplies no breakdown; the result is
// marked model.SourceEstimated.
func EstimateDistribution(negativePercentage float64) (model.SentimentDistribution, error) {
	if math.IsNaN(negativePercentage) || negativePercentage < 0 || negativePercentage > 100 {
		return model.SentimentDistribution{}, &model.ValidationError{
			Field:  "negative_percentage",
			Reason: fmt.Sprintf("must be within [0, 100], got %v", negativePercentage),
		}
	}

	negative := negativePercentage
	positive := (100 - negative) * positiveShare
	neutral := 100 - negative - positive

	return model.SentimentDistribution{
		Negative: negative,
		Neutral:  neutral,
		Positive: positive,
		Source:   model.SourceEstimated,
	}, nil
}

// DistributionFromCounts converts measured category counts into percentages.
// ok is false when there is nothing to measure (all counts zero) or a count
// is negative.
func DistributionFromCounts(negative, neutral, positive int) (dist model.SentimentDistribution, ok bool) {
	if negative < 0 || neutral < 0 || positive < 0 {
		return model.SentimentDistribution{}, false
	}
	total := negative + neutral + positive
	if total == 0 {
		return model.SentimentDistribution{}, false
	}

	neg := float64(negative) / float64(total) * 100
	pos := float64(positive) / float64(total) * 100

	return model.SentimentDistribution{
		Negative: neg,
		Neutral:  math.Max(0, 100-neg-pos),
		Positive: pos,
		Source:   model.SourceUpstream,
	}, true
}

// EstimateCounts maps a distribution back onto a post total
func EstimateCounts(dist model.SentimentDistribution, totalPosts int) model.EstimatedCounts {
	if totalPosts <= 0 {
		return model.EstimatedCounts{}
	}
	negative := int(math.Round(float64(totalPosts) * dist.Negative / 100))
	positive := int(math.Round(float64(totalPosts) * dist.Positive / 100))
	neutral := totalPosts - negative - positive
	if neutral < 0 {
		neutral = 0
	}
	return model.EstimatedCounts{
		Negative: negative,
		Neutral:  neutral,
		Positive: positive,
		Total:    totalPosts,
	}
}
