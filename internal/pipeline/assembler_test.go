package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/foresight/internal/llm"
	"github.com/ppiankov/foresight/internal/model"
	"github.com/ppiankov/foresight/internal/upstream"
)

type stubAnalyzer struct {
	analysis *Analysis
	err      error
}

func (s *stubAnalyzer) Run(ctx context.Context, product, brand string) (*Analysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	a := *s.analysis
	return &a, nil
}

func fixedAssembler(analyzer Analyzer) *Assembler {
	log, _ := testLogger()
	a := NewAssembler(analyzer, testConfig(), nil, log)
	a.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	a.newID = func() string { return "report-1" }
	return a
}

func sampleAnalysis() *Analysis {
	api := newFakeUpstream()
	return &Analysis{Sentiment: api.sentiment, Prediction: api.prediction}
}

func TestAssembler_Assemble(t *testing.T) {
	a := fixedAssembler(nil)

	report, err := a.Assemble("S23", "Samsung", sampleAnalysis())
	require.NoError(t, err)

	assert.Equal(t, "report-1", report.ID)
	assert.Equal(t, "YouTube", report.Platform)

	// negative 40 -> 40 / 36 / 24
	assert.Equal(t, model.SourceEstimated, report.Distribution.Source)
	assert.InDelta(t, 40, report.Distribution.Negative, 1e-9)
	assert.InDelta(t, 36, report.Distribution.Neutral, 1e-9)
	assert.InDelta(t, 24, report.Distribution.Positive, 1e-9)
	assert.InDelta(t, 100, report.Distribution.Sum(), 1e-9)

	assert.Equal(t, 80.0, report.Scores.Health)
	assert.Equal(t, 60.0, report.Scores.SentimentHealth)
	assert.Equal(t, 100, report.Scores.ConfidenceScore)
	assert.Equal(t, "medium", report.Scores.EngagementTier)
	assert.Equal(t, "elevated", report.Scores.DropSeverity)
	assert.Equal(t, "Immediate action needed", report.Advice.Headline)

	// drop 20, High -> [3, 7, 13, 18]
	require.Len(t, report.Recovery, 4)
	var display []int
	for _, p := range report.Recovery {
		display = append(display, p.DisplayPercentage)
	}
	assert.Equal(t, []int{3, 7, 13, 18}, display)
	assert.Equal(t, "Week 1", report.Recovery[0].Label)
	assert.InDelta(t, 18, report.TargetRecovery, 1e-9)

	assert.Len(t, report.Impact, 4)
	assert.Len(t, report.Checklist, 6)
	assert.Len(t, report.Highlights, 4)
	require.NotNil(t, report.Counts)
	assert.Equal(t, model.EstimatedCounts{Negative: 30, Neutral: 27, Positive: 18, Total: 75}, *report.Counts)
	assert.Nil(t, report.Narrative)
}

func TestAssembler_UpstreamDistributionPassedThrough(t *testing.T) {
	analysis := sampleAnalysis()
	analysis.Distribution = &model.SentimentDistribution{Negative: 20, Neutral: 50, Positive: 30, Source: model.SourceUpstream}

	report, err := fixedAssembler(nil).Assemble("S23", "Samsung", analysis)
	require.NoError(t, err)
	assert.Equal(t, *analysis.Distribution, report.Distribution)
	assert.Nil(t, report.Counts, "dashboard window differs from total_posts")
}

func TestAssembler_ClampsDrop(t *testing.T) {
	tests := []struct {
		name string
		drop float64
		want float64
	}{
		{"over 100", 140, 100},
		{"negative", -12, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := testLogger()
			a := NewAssembler(nil, testConfig(), nil, log)

			analysis := sampleAnalysis()
			analysis.Prediction.PredictedDropPercentage = tt.drop

			report, err := a.Assemble("S23", "Samsung", analysis)
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.Prediction.PredictedDropPercentage)
			assert.Equal(t, 100-tt.want, report.Scores.Health)
			assert.InDelta(t, 0.9*tt.want, report.TargetRecovery, 1e-9)
			assert.Equal(t, tt.drop, analysis.Prediction.PredictedDropPercentage, "input is not mutated")

			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
			assert.Equal(t, tt.drop, hook.LastEntry().Data["drop"])
		})
	}
}

func TestAssembler_RejectsBadNumbers(t *testing.T) {
	cases := map[string]func(*Analysis){
		"nan sentiment":      func(a *Analysis) { a.Sentiment.AverageSentiment = math.NaN() },
		"inf drop":           func(a *Analysis) { a.Prediction.PredictedDropPercentage = math.Inf(1) },
		"negative share":     func(a *Analysis) { a.Sentiment.NegativePercentage = -1 },
		"nan drop":           func(a *Analysis) { a.Prediction.PredictedDropPercentage = math.NaN() },
		"probability over 1": func(a *Analysis) { a.Prediction.LossProbability = 1.5 },
		"negative posts":     func(a *Analysis) { a.Sentiment.TotalPosts = -3 },
		"unknown risk":       func(a *Analysis) { a.Prediction.RiskLevel = "Severe" },
		"bad distribution": func(a *Analysis) {
			a.Distribution = &model.SentimentDistribution{Negative: math.NaN(), Source: model.SourceUpstream}
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			analysis := sampleAnalysis()
			mutate(analysis)

			report, err := fixedAssembler(nil).Assemble("S23", "Samsung", analysis)
			assert.Nil(t, report)
			var ve *model.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestAssembler_ZeroDrop(t *testing.T) {
	analysis := sampleAnalysis()
	analysis.Prediction.PredictedDropPercentage = 0
	analysis.Prediction.RiskLevel = model.RiskLow

	report, err := fixedAssembler(nil).Assemble("S23", "Samsung", analysis)
	require.NoError(t, err)
	for _, p := range report.Recovery {
		assert.Equal(t, 0.0, p.CumulativeRecoveryPercentage)
	}
	assert.Equal(t, "Month 2+", report.Recovery[3].Label)
}

func TestAssembler_OrchestratorErrorUnchanged(t *testing.T) {
	want := &model.TimeoutError{Step: upstream.StepSentiment, Timeout: time.Minute}
	a := fixedAssembler(&stubAnalyzer{err: want})

	report, err := a.GenerateReport(context.Background(), "S23", "Samsung")
	assert.Nil(t, report)
	assert.Same(t, want, err)
}

func TestAssembler_Idempotent(t *testing.T) {
	a := fixedAssembler(&stubAnalyzer{analysis: sampleAnalysis()})

	first, err := a.GenerateReport(context.Background(), "S23", "Samsung")
	require.NoError(t, err)
	second, err := a.GenerateReport(context.Background(), "S23", "Samsung")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAssembler_TrimsNames(t *testing.T) {
	a := fixedAssembler(&stubAnalyzer{analysis: sampleAnalysis()})

	report, err := a.GenerateReport(context.Background(), "  S23 ", " Samsung")
	require.NoError(t, err)
	assert.Equal(t, "S23", report.Product)
	assert.Equal(t, "Samsung", report.Brand)
}

// fakeService is an httptest stand-in for the analytics service
func fakeService(t *testing.T, refreshStatus int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/fetch-youtube-comments":
			w.WriteHeader(refreshStatus)
			_, _ = w.Write([]byte(`{"detail": "No comments found"}`))
		case "/analyze-sentiment":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"product_name":        "S23",
				"platform":            "YouTube",
				"average_sentiment":   0.21,
				"negative_percentage": 12.5,
				"total_posts":         40,
				"start_date":          "2024-01-01",
				"end_date":            "2024-12-31",
			})
		case "/predict-sales-loss":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"product_name":              "S23",
				"brand_name":                "Samsung",
				"predicted_drop_percentage": 8,
				"loss_probability":          0.2,
				"confidence":                1.0,
				"risk_level":                "Low",
				"explanation":               "Prediction based on sentiment trends.",
			})
		case "/get-dashboard-data":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"sentiment_distribution": map[string]int{"positive": 0, "neutral": 0, "negative": 0},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newHTTPAssembler(t *testing.T, baseURL string, summarizer *llm.Summarizer) *Assembler {
	t.Helper()
	cfg := testConfig()
	cfg.Upstream.BaseURL = baseURL
	log, _ := testLogger()
	client := upstream.NewClient(cfg.Upstream, nil)
	return NewAssembler(NewOrchestrator(client, cfg, log), cfg, summarizer, log)
}

func TestGenerateReport_RefreshFailsOverHTTP(t *testing.T) {
	server := fakeService(t, http.StatusInternalServerError)
	defer server.Close()

	report, err := newHTTPAssembler(t, server.URL, nil).GenerateReport(context.Background(), "S23", "Samsung")
	require.NoError(t, err)

	assert.Equal(t, 12.5, report.Sentiment.NegativePercentage)
	assert.Equal(t, model.RiskLow, report.Prediction.RiskLevel)
	assert.Equal(t, model.SourceEstimated, report.Distribution.Source)
	assert.Equal(t, "Low concern", report.Advice.Headline)
	assert.NotEmpty(t, report.ID)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestGenerateReport_WithNarrative(t *testing.T) {
	server := fakeService(t, http.StatusOK)
	defer server.Close()

	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/generate":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"model":    "llama3.1",
				"response": "Only 12.5% of comments are negative and the predicted drop is 8%.",
				"done":     true,
			})
		}
	}))
	defer ollama.Close()

	summarizer, err := llm.NewSummarizer(llm.Config{
		Provider:      "ollama",
		Model:         "llama3.1",
		BaseURL:       ollama.URL,
		Timeout:       5,
		StrictFigures: true,
	})
	require.NoError(t, err)

	report, err := newHTTPAssembler(t, server.URL, summarizer).GenerateReport(context.Background(), "S23", "Samsung")
	require.NoError(t, err)
	require.NotNil(t, report.Narrative)

	assert.True(t, report.Narrative.Enabled)
	assert.Equal(t, "ollama", report.Narrative.Provider)
	assert.Contains(t, report.Narrative.Text, "12.5%")
	assert.Equal(t, 8.0, report.Prediction.PredictedDropPercentage)
}
