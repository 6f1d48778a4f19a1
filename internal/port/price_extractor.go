package port

import (
	"context"

	"agroprice/internal/domain"
)

// PriceExtractor reads price table rows out of an image reachable at imageURL.
type PriceExtractor interface {
	Extract(ctx context.Context, imageURL string, referenceNames []string) ([]domain.ParsedPriceRecord, error)
}
