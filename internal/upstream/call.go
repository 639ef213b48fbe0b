package upstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/foresight/internal/model"
)

// Step names used in errors and logs
const (
	StepRefresh    = "fetch_comments"
	StepSentiment  = "analyze_sentiment"
	StepPrediction = "predict_sales_loss"
	StepDashboard  = "dashboard_distribution"
)

// CallOptions bounds one upstream step. The parent context passed to Call is
// the cancellation token; Timeout derives the step's own deadline from it.
type CallOptions struct {
	Step    string
	Timeout time.Duration
}

// Call runs fn under a deadline of opts.Timeout derived from ctx and maps
// context failures onto the error taxonomy:
//   - the step's own deadline, or a parent deadline, yields *model.TimeoutError
//   - parent cancellation yields model.ErrCanceled (also matching context.Canceled)
//
// Any other error from fn is returned unchanged.
func Call[T any](ctx context.Context, opts CallOptions, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, contextError(opts, err)
	}

	callCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	v, err := fn(callCtx)
	if err == nil {
		return v, nil
	}

	if parentErr := ctx.Err(); parentErr != nil {
		return zero, contextError(opts, parentErr)
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return zero, &model.TimeoutError{Step: opts.Step, Timeout: opts.Timeout}
	}
	return zero, err
}

func contextError(opts CallOptions, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.TimeoutError{Step: opts.Step, Timeout: opts.Timeout}
	}
	return fmt.Errorf("%s: %w: %w", opts.Step, model.ErrCanceled, err)
}
