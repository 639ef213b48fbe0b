package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrCanceled is returned when a report run is canceled by its caller or
// superseded by a newer run.
var ErrCanceled = errors.New("report generation canceled")

// ValidationError reports bad input or a missing/non-finite required field.
// Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// TimeoutError reports that a required step exceeded its bounded wait
type TimeoutError struct {
	Step    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Step, e.Timeout)
}

// UpstreamError reports a non-success response from the analytics service
type UpstreamError struct {
	Step       string
	StatusCode int // 0 when the request never produced a response
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s failed: %s", e.Step, e.Message)
	}
	return fmt.Sprintf("%s failed (%d): %s", e.Step, e.StatusCode, e.Message)
}

// PartialDataError is returned only when partial results are enabled: one
// required signal was obtained and the other was not. Err is the failure of
// the missing step.
type PartialDataError struct {
	Missing    string
	Sentiment  *SentimentSummary
	Prediction *SalesLossPrediction
	Err        error
}

func (e *PartialDataError) Error() string {
	return fmt.Sprintf("partial data: %s unavailable: %v", e.Missing, e.Err)
}

func (e *PartialDataError) Unwrap() error { return e.Err }

// IsRetryable reports whether a caller should offer a "try again" action
func IsRetryable(err error) bool {
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode == 0 || ue.StatusCode >= 500 || ue.StatusCode == 429
	}
	return false
}
