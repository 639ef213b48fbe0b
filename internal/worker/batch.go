package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/foresight/internal/model"
)

// ReportGenerator produces one report for a product/brand pair
type ReportGenerator interface {
	GenerateReport(ctx context.Context, product, brand string) (*model.ReportViewModel, error)
}

// Pair is one batch input line
type Pair struct {
	Product string
	Brand   string
}

// String returns "product,brand"
func (p Pair) String() string {
	if p.Brand == "" {
		return p.Product
	}
	return p.Product + "," + p.Brand
}

// ReportJob generates the report for a single pair
type ReportJob struct {
	Index     int
	Pair      Pair
	Generator ReportGenerator
}

// Execute executes the report job
func (j *ReportJob) Execute(ctx context.Context) Result {
	report, err := j.Generator.GenerateReport(ctx, j.Pair.Product, j.Pair.Brand)
	if err != nil {
		return &ReportResult{Index: j.Index, Pair: j.Pair, Error: err}
	}
	return &ReportResult{Index: j.Index, Pair: j.Pair, Report: report}
}

// ReportResult represents the result of a report job
type ReportResult struct {
	Index  int
	Pair   Pair
	Report *model.ReportViewModel
	Error  error
}

// GetError returns the error from the report result
func (r *ReportResult) GetError() error {
	return r.Error
}

// BatchProcessor generates reports for many pairs concurrently
type BatchProcessor struct {
	generator   ReportGenerator
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(generator ReportGenerator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		generator:   generator,
		concurrency: concurrency,
	}
}

// ProcessPairs generates reports for all pairs. Results are returned in
// input order; per-pair failures are carried on the result.
func (b *BatchProcessor) ProcessPairs(ctx context.Context, pairs []Pair) []*ReportResult {
	if len(pairs) == 0 {
		return []*ReportResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for i, pair := range pairs {
		pool.Submit(&ReportJob{
			Index:     i,
			Pair:      pair,
			Generator: b.generator,
		})
	}

	results := pool.Wait()

	reports := make([]*ReportResult, 0, len(results))
	for _, result := range results {
		reports = append(reports, result.(*ReportResult))
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Index < reports[j].Index })

	return reports
}

// ProcessFile reads pairs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ReportResult, error) {
	pairs, err := ReadPairsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read pairs: %w", err)
	}

	return b.ProcessPairs(ctx, pairs), nil
}

// ReadPairsFromFile reads "product,brand" lines from a file. The brand is
// optional. Blank lines, # comments and duplicates are skipped.
func ReadPairsFromFile(filePath string) ([]Pair, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var pairs []Pair
	seen := make(map[Pair]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pair, err := parsePair(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if !seen[pair] {
			seen[pair] = true
			pairs = append(pairs, pair)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return pairs, nil
}

func parsePair(line string) (Pair, error) {
	product, brand, _ := strings.Cut(line, ",")
	pair := Pair{
		Product: strings.TrimSpace(product),
		Brand:   strings.TrimSpace(brand),
	}
	if pair.Product == "" {
		return Pair{}, &model.ValidationError{Field: "product_name", Reason: "must not be empty"}
	}
	return pair, nil
}
