package port

import (
	"context"

	"agroprice/internal/domain"
)

// PriceTrendRepository defines the contract for price trend persistence.
type PriceTrendRepository interface {
	// BulkInsert writes all records in one statement, skipping rows that collide on
	// (pesticide_id, week_end_date). It returns only the rows it created.
	BulkInsert(ctx context.Context, records []domain.PriceTrendRecord) ([]domain.PriceTrendRecord, error)
	// Insert writes a single record. A uniqueness collision returns domain.ErrPersistenceConflict.
	Insert(ctx context.Context, record *domain.PriceTrendRecord) error
}
