package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/foresight/internal/model"
	"github.com/ppiankov/foresight/internal/store"
)

// ReportGenerator produces one report for a pair
type ReportGenerator interface {
	GenerateReport(ctx context.Context, product, brand string) (*model.ReportViewModel, error)
}

// Session holds the single report slot for one consumer. At most one
// generation is active: starting a new one cancels the previous, and only
// the newest run may write the slot.
type Session struct {
	gen   ReportGenerator
	store store.Store // may be nil
	log   logrus.FieldLogger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	latest *model.ReportViewModel
}

// NewSession creates a session. st supplies and remembers the product/brand
// selection; it may be nil.
func NewSession(gen ReportGenerator, st store.Store, log logrus.FieldLogger) *Session {
	return &Session{gen: gen, store: st, log: log}
}

// Generate cancels any in-flight run and generates a report for the pair.
// Empty product or brand are read from the store. A run superseded by a
// newer call returns an error matching model.ErrCanceled and leaves the
// slot untouched.
func (s *Session) Generate(ctx context.Context, product, brand string) (*model.ReportViewModel, error) {
	runCtx, id := s.begin(ctx)
	defer s.end(id)

	product, brand = s.resolve(runCtx, product, brand)

	report, err := s.gen.GenerateReport(runCtx, product, brand)

	s.mu.Lock()
	current := s.seq == id
	if current && err == nil {
		s.latest = report
	}
	s.mu.Unlock()

	if !current {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("superseded by a newer request: %w", model.ErrCanceled)
	}
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		sel := store.Selection{Product: product, Brand: brand}
		if err := store.SaveSelection(ctx, s.store, sel); err != nil {
			s.log.WithError(err).Warn("could not remember product selection")
		}
	}

	return report.Clone(), nil
}

// Cancel cancels the in-flight run, if any. Completed reports are kept.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Latest returns a copy of the last successfully generated report, or nil
func (s *Session) Latest() *model.ReportViewModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest.Clone()
}

func (s *Session) begin(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.seq++
	s.cancel = cancel
	return runCtx, s.seq
}

func (s *Session) end(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == id && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// resolve fills empty fields from the remembered selection
func (s *Session) resolve(ctx context.Context, product, brand string) (string, string) {
	product = strings.TrimSpace(product)
	brand = strings.TrimSpace(brand)
	if s.store == nil || (product != "" && brand != "") {
		return product, brand
	}

	sel, err := store.LoadSelection(ctx, s.store)
	if err != nil {
		s.log.WithError(err).Warn("could not load remembered product selection")
		return product, brand
	}
	if product == "" {
		product = sel.Product
	}
	if brand == "" {
		brand = sel.Brand
	}
	return product, brand
}
