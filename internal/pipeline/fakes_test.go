package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ppiankov/foresight/internal/model"
	"github.com/ppiankov/foresight/internal/upstream"
)

// fakeUpstream records calls and serves canned responses
type fakeUpstream struct {
	mu    sync.Mutex
	calls []string

	refreshErr error

	sentiment      model.SentimentSummary
	sentimentErr   error
	sentimentDelay time.Duration
	sentimentStart chan struct{} // closed when AnalyzeSentiment begins, if set

	prediction      model.SalesLossPrediction
	predictionErr   error
	predictionDelay time.Duration

	counts       upstream.DashboardCounts
	dashboardErr error
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		sentiment: model.SentimentSummary{
			AverageSentiment:   -0.12,
			NegativePercentage: 40,
			TotalPosts:         75,
		},
		prediction: model.SalesLossPrediction{
			PredictedDropPercentage: 20,
			LossProbability:         0.72,
			Confidence:              1,
			RiskLevel:               model.RiskHigh,
			Explanation:             "Prediction based on sentiment trends.",
		},
	}
}

func (f *fakeUpstream) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, step)
}

func (f *fakeUpstream) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (f *fakeUpstream) FetchComments(ctx context.Context, product, brand string) error {
	f.record(upstream.StepRefresh)
	return f.refreshErr
}

func (f *fakeUpstream) AnalyzeSentiment(ctx context.Context, q upstream.Query) (model.SentimentSummary, error) {
	f.record(upstream.StepSentiment)
	if f.sentimentStart != nil {
		close(f.sentimentStart)
	}
	if err := wait(ctx, f.sentimentDelay); err != nil {
		return model.SentimentSummary{}, err
	}
	if f.sentimentErr != nil {
		return model.SentimentSummary{}, f.sentimentErr
	}
	s := f.sentiment
	s.DateRange = q.Range
	return s, nil
}

func (f *fakeUpstream) PredictSalesLoss(ctx context.Context, q upstream.Query) (model.SalesLossPrediction, error) {
	f.record(upstream.StepPrediction)
	if err := wait(ctx, f.predictionDelay); err != nil {
		return model.SalesLossPrediction{}, err
	}
	if f.predictionErr != nil {
		return model.SalesLossPrediction{}, f.predictionErr
	}
	return f.prediction, nil
}

func (f *fakeUpstream) FetchDashboard(ctx context.Context, q upstream.Query) (upstream.DashboardCounts, error) {
	f.record(upstream.StepDashboard)
	if f.dashboardErr != nil {
		return upstream.DashboardCounts{}, f.dashboardErr
	}
	return f.counts, nil
}

func testLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Timeouts.Refresh = time.Second
	cfg.Timeouts.Sentiment = time.Second
	cfg.Timeouts.Prediction = time.Second
	cfg.Timeouts.Dashboard = time.Second
	return cfg
}
