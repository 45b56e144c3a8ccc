package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/futig/urlchat-backend/internal/entity"
	"go.uber.org/zap"
)

// CandidateFile is one file from a folder upload, in discovery order.
type CandidateFile struct {
	Path string
	Data []byte
}

// FileFailure records a per-file extraction failure. Failures never abort
// the batch; they are collected for diagnostic reporting.
type FileFailure struct {
	Path string
	Err  error
}

// AggregateResult is the outcome of merging a folder upload under the
// character budget.
type AggregateResult struct {
	MergedText    string
	IncludedCount int
	EligibleCount int
	Failures      []FileFailure
	Truncated     bool
}

// Aggregator merges folder uploads into a single context block under a
// global character budget.
type Aggregator struct {
	budget int
	logger *zap.Logger
}

func NewAggregator(budget int, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		budget: budget,
		logger: logger,
	}
}

// Aggregate filters candidates to eligible files (whitelisted extension,
// non-empty), extracts them concurrently, then merges in discovery order
// under the budget. Inclusion is prefix-greedy: the first file whose text
// would push the running character total past the budget is excluded along
// with every file after it; no reordering or per-file truncation happens
// here.
func (a *Aggregator) Aggregate(ctx context.Context, files []CandidateFile) *AggregateResult {
	eligible := make([]CandidateFile, 0, len(files))
	for _, f := range files {
		if Supported(f.Path) && len(f.Data) > 0 {
			eligible = append(eligible, f)
		}
	}

	result := &AggregateResult{EligibleCount: len(eligible)}
	if len(eligible) == 0 {
		return result
	}

	// Extractions are independent, so they run concurrently; the budget
	// pass below stays sequential to preserve discovery order.
	texts := make([]string, len(eligible))
	errs := make([]error, len(eligible))

	var wg sync.WaitGroup
	for i, f := range eligible {
		wg.Add(1)
		go func(i int, f CandidateFile) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			texts[i], errs[i] = Extract(f.Path, f.Data)
		}(i, f)
	}
	wg.Wait()

	var merged strings.Builder
	total := 0
	for i, f := range eligible {
		if errs[i] != nil {
			a.logger.Warn("skipping file after extraction failure",
				zap.String("path", f.Path),
				zap.Error(errs[i]),
			)
			result.Failures = append(result.Failures, FileFailure{Path: f.Path, Err: errs[i]})
			continue
		}

		text := texts[i]
		if strings.TrimSpace(text) == "" {
			continue
		}

		size := utf8.RuneCountInString(text)
		if total+size > a.budget {
			result.Truncated = true
			break
		}

		if result.IncludedCount > 0 {
			merged.WriteString("\n\n")
		}
		merged.WriteString(fmt.Sprintf("--- File: %s ---\n", f.Path))
		merged.WriteString(text)

		total += size
		result.IncludedCount++
	}

	result.MergedText = merged.String()
	return result
}

// Single extracts one file and truncates the text to exactly the budget's
// leading characters when it is longer. Unlike the folder path, which drops
// whole files, the single-file path keeps a truncated prefix.
func (a *Aggregator) Single(filename string, data []byte) (string, bool, error) {
	if !Supported(filename) {
		return "", false, fmt.Errorf("%w: %s", entity.ErrUnsupportedType, filename)
	}

	text, err := Extract(filename, data)
	if err != nil {
		return "", false, err
	}

	if utf8.RuneCountInString(text) > a.budget {
		return string([]rune(text)[:a.budget]), true, nil
	}

	return text, false, nil
}
