package port

import (
	"context"

	"github.com/google/uuid"

	"agroprice/internal/domain"
)

// CatalogRepository gives read access to the pesticide reference catalog.
type CatalogRepository interface {
	ListAllNames(ctx context.Context) ([]string, error)
	ListAll(ctx context.Context) ([]domain.CatalogEntry, error)
	FindByNames(ctx context.Context, names []string) ([]domain.CatalogEntry, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.CatalogEntry, error)
}
