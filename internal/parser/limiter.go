package parser

import (
	"context"

	"golang.org/x/sync/semaphore"

	"agroprice/internal/domain"
	"agroprice/internal/port"
)

// LimitedExtractor caps the number of in-flight vision calls across all tasks in the process.
type LimitedExtractor struct {
	inner port.PriceExtractor
	sem   *semaphore.Weighted
}

// NewLimitedExtractor wraps inner so at most maxConcurrent Extract calls run at once.
// A maxConcurrent of zero or less returns inner unchanged.
func NewLimitedExtractor(inner port.PriceExtractor, maxConcurrent int) port.PriceExtractor {
	if maxConcurrent <= 0 {
		return inner
	}
	return &LimitedExtractor{inner: inner, sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

// Extract waits for a free slot, honoring ctx, then delegates to the wrapped extractor.
func (l *LimitedExtractor) Extract(ctx context.Context, imageURL string, referenceNames []string) ([]domain.ParsedPriceRecord, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)
	return l.inner.Extract(ctx, imageURL, referenceNames)
}
