// Package pipeline turns a product/brand pair into a sales-risk report:
// the orchestrator gathers upstream signals, the assembler derives the
// view-model, and the session enforces last-request-wins.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/foresight/internal/derive"
	"github.com/ppiankov/foresight/internal/model"
	"github.com/ppiankov/foresight/internal/upstream"
)

// Upstream is the analytics/prediction service as seen by the orchestrator
type Upstream interface {
	FetchComments(ctx context.Context, product, brand string) error
	AnalyzeSentiment(ctx context.Context, q upstream.Query) (model.SentimentSummary, error)
	PredictSalesLoss(ctx context.Context, q upstream.Query) (model.SalesLossPrediction, error)
	FetchDashboard(ctx context.Context, q upstream.Query) (upstream.DashboardCounts, error)
}

// Analysis holds the raw signals for one run. Distribution is nil unless the
// dashboard supplied a measured breakdown.
type Analysis struct {
	Sentiment    model.SentimentSummary
	Prediction   model.SalesLossPrediction
	Distribution *model.SentimentDistribution
}

// Orchestrator runs the upstream steps strictly in order:
// refresh (best-effort), sentiment, prediction, dashboard (best-effort).
type Orchestrator struct {
	api Upstream
	cfg *model.Config
	log logrus.FieldLogger
}

// NewOrchestrator creates an orchestrator over api
func NewOrchestrator(api Upstream, cfg *model.Config, log logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{api: api, cfg: cfg, log: log}
}

// Run gathers sentiment and prediction for the pair. An empty product fails
// before any request is made. Cancelling ctx stops the step in flight and
// no later step starts.
func (o *Orchestrator) Run(ctx context.Context, product, brand string) (*Analysis, error) {
	product = strings.TrimSpace(product)
	brand = strings.TrimSpace(brand)
	if product == "" {
		return nil, &model.ValidationError{Field: "product_name", Reason: "must not be empty"}
	}

	dateRange, err := o.cfg.Analysis.DateRange()
	if err != nil {
		return nil, err
	}

	q := upstream.Query{
		Product:  product,
		Brand:    brand,
		Platform: o.cfg.Analysis.Platform,
		Range:    dateRange,
	}
	log := o.log.WithFields(logrus.Fields{"product": product, "brand": brand})

	if o.cfg.Upstream.RefreshComments {
		_, err := step(ctx, log, upstream.CallOptions{Step: upstream.StepRefresh, Timeout: o.cfg.Timeouts.Refresh},
			func(ctx context.Context) (struct{}, error) {
				return struct{}{}, o.api.FetchComments(ctx, product, brand)
			})
		if err != nil {
			if canceled(err) {
				return nil, err
			}
			log.WithError(err).WithField("step", upstream.StepRefresh).Warn("comment refresh failed, continuing with ingested data")
		}
	}

	sentiment, sentErr := step(ctx, log, upstream.CallOptions{Step: upstream.StepSentiment, Timeout: o.cfg.Timeouts.Sentiment},
		func(ctx context.Context) (model.SentimentSummary, error) {
			return o.api.AnalyzeSentiment(ctx, q)
		})
	if sentErr != nil && (canceled(sentErr) || !o.cfg.Upstream.AllowPartial) {
		return nil, o.fatal(log, upstream.StepSentiment, sentErr)
	}

	prediction, predErr := step(ctx, log, upstream.CallOptions{Step: upstream.StepPrediction, Timeout: o.cfg.Timeouts.Prediction},
		func(ctx context.Context) (model.SalesLossPrediction, error) {
			return o.api.PredictSalesLoss(ctx, q)
		})

	switch {
	case predErr != nil && (canceled(predErr) || sentErr != nil || !o.cfg.Upstream.AllowPartial):
		if sentErr != nil && !canceled(predErr) {
			return nil, o.fatal(log, upstream.StepSentiment, sentErr)
		}
		return nil, o.fatal(log, upstream.StepPrediction, predErr)
	case predErr != nil:
		return nil, o.fatal(log, upstream.StepPrediction, &model.PartialDataError{
			Missing:   upstream.StepPrediction,
			Sentiment: &sentiment,
			Err:       predErr,
		})
	case sentErr != nil:
		return nil, o.fatal(log, upstream.StepSentiment, &model.PartialDataError{
			Missing:    upstream.StepSentiment,
			Prediction: &prediction,
			Err:        sentErr,
		})
	}

	analysis := &Analysis{Sentiment: sentiment, Prediction: prediction}

	if o.cfg.Upstream.UseDashboardDistribution {
		counts, err := step(ctx, log, upstream.CallOptions{Step: upstream.StepDashboard, Timeout: o.cfg.Timeouts.Dashboard},
			func(ctx context.Context) (upstream.DashboardCounts, error) {
				return o.api.FetchDashboard(ctx, q)
			})
		switch {
		case err != nil && canceled(err):
			return nil, err
		case err != nil:
			log.WithError(err).WithField("step", upstream.StepDashboard).Warn("dashboard distribution unavailable, estimating")
		default:
			if dist, ok := derive.DistributionFromCounts(counts.Negative, counts.Neutral, counts.Positive); ok {
				analysis.Distribution = &dist
			} else {
				log.WithField("step", upstream.StepDashboard).Debug("dashboard has no counts, estimating")
			}
		}
	}

	return analysis, nil
}

func (o *Orchestrator) fatal(log logrus.FieldLogger, stepName string, err error) error {
	if canceled(err) {
		log.WithField("step", stepName).Info("report generation canceled")
		return err
	}
	log.WithError(err).WithField("step", stepName).Error("required step failed")
	return err
}

// step wraps upstream.Call with per-step debug logging
func step[T any](ctx context.Context, log logrus.FieldLogger, opts upstream.CallOptions, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	log.WithField("step", opts.Step).Debug("step started")

	v, err := upstream.Call(ctx, opts, fn)

	log.WithFields(logrus.Fields{
		"step":     opts.Step,
		"duration": time.Since(start).Round(time.Millisecond),
		"ok":       err == nil,
	}).Debug("step finished")
	return v, err
}

func canceled(err error) bool {
	return errors.Is(err, model.ErrCanceled)
}
