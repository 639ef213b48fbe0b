// Package upstream is the HTTP client for the analytics/prediction service.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/foresight/internal/model"
)

// RateLimiter gates outgoing requests per endpoint key
type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}

// Query scopes a sentiment or prediction request
type Query struct {
	Product  string
	Brand    string
	Platform string
	Range    model.DateRange
}

// DashboardCounts is the per-category post count from the dashboard endpoint
type DashboardCounts struct {
	Negative int
	Neutral  int
	Positive int
}

// Client talks to the analytics/prediction service
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxVideos  int
	limiter    RateLimiter
}

// NewClient creates a client. Per-call deadlines come from the caller's
// context; the http.Client itself has no global timeout. limiter may be nil.
func NewClient(cfg model.UpstreamConfig, limiter RateLimiter) *Client {
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
		maxVideos: cfg.MaxVideos,
		limiter:   limiter,
	}
}

type analysisRequest struct {
	ProductName string `json:"product_name"`
	BrandName   string `json:"brand_name"`
	Platform    string `json:"platform"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

func newAnalysisRequest(q Query) analysisRequest {
	return analysisRequest{
		ProductName: q.Product,
		BrandName:   q.Brand,
		Platform:    q.Platform,
		StartDate:   q.Range.StartString(),
		EndDate:     q.Range.EndString(),
	}
}

type sentimentResponse struct {
	ProductName        string   `json:"product_name"`
	Platform           string   `json:"platform"`
	AverageSentiment   *float64 `json:"average_sentiment"`
	NegativePercentage *float64 `json:"negative_percentage"`
	TotalPosts         *int     `json:"total_posts"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
}

type predictionResponse struct {
	ProductName             string   `json:"product_name"`
	BrandName               string   `json:"brand_name"`
	PredictedDropPercentage *float64 `json:"predicted_drop_percentage"`
	LossProbability         *float64 `json:"loss_probability"`
	Confidence              *float64 `json:"confidence"`
	RiskLevel               *string  `json:"risk_level"`
	Explanation             string   `json:"explanation"`
}

type dashboardResponse struct {
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
}

// FetchComments asks the service to re-ingest comments for the pair.
// The response body carries nothing the report needs and is discarded.
func (c *Client) FetchComments(ctx context.Context, product, brand string) error {
	params := url.Values{}
	params.Set("product_name", product)
	params.Set("brand_name", brand)
	if c.maxVideos > 0 {
		params.Set("max_videos", strconv.Itoa(c.maxVideos))
	}
	return c.do(ctx, StepRefresh, http.MethodPost, "/fetch-youtube-comments", params, nil, nil)
}

// AnalyzeSentiment requests the aggregate sentiment for the query window
func (c *Client) AnalyzeSentiment(ctx context.Context, q Query) (model.SentimentSummary, error) {
	var resp sentimentResponse
	if err := c.do(ctx, StepSentiment, http.MethodPost, "/analyze-sentiment", nil, newAnalysisRequest(q), &resp); err != nil {
		return model.SentimentSummary{}, err
	}

	switch {
	case resp.AverageSentiment == nil:
		return model.SentimentSummary{}, missingField("average_sentiment")
	case resp.NegativePercentage == nil:
		return model.SentimentSummary{}, missingField("negative_percentage")
	case resp.TotalPosts == nil:
		return model.SentimentSummary{}, missingField("total_posts")
	}

	dateRange := q.Range
	if r, err := model.NewDateRange(resp.StartDate, resp.EndDate); err == nil {
		dateRange = r
	}

	return model.SentimentSummary{
		AverageSentiment:   *resp.AverageSentiment,
		NegativePercentage: *resp.NegativePercentage,
		TotalPosts:         *resp.TotalPosts,
		DateRange:          dateRange,
	}, nil
}

// PredictSalesLoss requests the sales-loss prediction for the query window
func (c *Client) PredictSalesLoss(ctx context.Context, q Query) (model.SalesLossPrediction, error) {
	var resp predictionResponse
	if err := c.do(ctx, StepPrediction, http.MethodPost, "/predict-sales-loss", nil, newAnalysisRequest(q), &resp); err != nil {
		return model.SalesLossPrediction{}, err
	}

	switch {
	case resp.PredictedDropPercentage == nil:
		return model.SalesLossPrediction{}, missingField("predicted_drop_percentage")
	case resp.LossProbability == nil:
		return model.SalesLossPrediction{}, missingField("loss_probability")
	case resp.Confidence == nil:
		return model.SalesLossPrediction{}, missingField("confidence")
	case resp.RiskLevel == nil:
		return model.SalesLossPrediction{}, missingField("risk_level")
	}

	risk, err := model.ParseRiskLevel(*resp.RiskLevel)
	if err != nil {
		return model.SalesLossPrediction{}, err
	}

	return model.SalesLossPrediction{
		PredictedDropPercentage: *resp.PredictedDropPercentage,
		LossProbability:         *resp.LossProbability,
		Confidence:              *resp.Confidence,
		RiskLevel:               risk,
		Explanation:             resp.Explanation,
	}, nil
}

// FetchDashboard reads the measured per-category counts. The dashboard
// endpoint aggregates over its own fixed window, not the query range.
func (c *Client) FetchDashboard(ctx context.Context, q Query) (DashboardCounts, error) {
	params := url.Values{}
	params.Set("product_name", q.Product)
	params.Set("brand_name", q.Brand)
	params.Set("platform", q.Platform)

	var resp dashboardResponse
	if err := c.do(ctx, StepDashboard, http.MethodGet, "/get-dashboard-data", params, nil, &resp); err != nil {
		return DashboardCounts{}, err
	}
	if resp.SentimentDistribution == nil {
		return DashboardCounts{}, missingField("sentiment_distribution")
	}

	return DashboardCounts{
		Negative: resp.SentimentDistribution["negative"],
		Neutral:  resp.SentimentDistribution["neutral"],
		Positive: resp.SentimentDistribution["positive"],
	}, nil
}

// do performs one JSON round trip. Non-2xx responses become *model.UpstreamError.
func (c *Client) do(ctx context.Context, step, method, path string, params url.Values, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, path); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, ok := ctx.Deadline(); ok {
				// the wait would outlast the step deadline
				return context.DeadlineExceeded
			}
			return &model.UpstreamError{Step: step, Message: fmt.Sprintf("rate limit: %v", err)}
		}
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &model.UpstreamError{Step: step, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &model.UpstreamError{Step: step, StatusCode: resp.StatusCode, Message: fmt.Sprintf("read body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &model.UpstreamError{Step: step, StatusCode: resp.StatusCode, Message: errorDetail(resp, data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &model.UpstreamError{Step: step, StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// errorDetail extracts FastAPI's "detail" field, which is either a string or
// a list of validation problems.
func errorDetail(resp *http.Response, data []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Detail) > 0 {
		var msg string
		if err := json.Unmarshal(envelope.Detail, &msg); err == nil && msg != "" {
			return msg
		}
		var problems []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &problems); err == nil {
			var msgs []string
			for _, p := range problems {
				if p.Msg != "" {
					msgs = append(msgs, p.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if text := strings.TrimSpace(string(data)); text != "" && len(text) <= 200 {
		return text
	}
	return resp.Status
}

func missingField(name string) error {
	return &model.ValidationError{Field: name, Reason: "missing from upstream response"}
}
