package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"agroprice/internal/domain"
	"agroprice/internal/port"
)

type catalogRepo struct {
	db *sqlx.DB
}

// NewCatalogRepo creates a new PostgreSQL-backed CatalogRepository over the pesticides table.
func NewCatalogRepo(db *sqlx.DB) port.CatalogRepository {
	return &catalogRepo{db: db}
}

const catalogColumns = `id, name_zh, name_en, name_es`

// ListAllNames returns every non-empty name variant, entry by entry in catalog order.
func (r *catalogRepo) ListAllNames(ctx context.Context) ([]string, error) {
	entries, err := r.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalogRepo.ListAllNames: %w", err)
	}
	names := make([]string, 0, len(entries)*2)
	for _, e := range entries {
		names = append(names, e.Names()...)
	}
	return names, nil
}

func (r *catalogRepo) ListAll(ctx context.Context) ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT `+catalogColumns+` FROM pesticides ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("catalogRepo.ListAll: %w", err)
	}
	return entries, nil
}

func (r *catalogRepo) FindByNames(ctx context.Context, names []string) ([]domain.CatalogEntry, error) {
	if len(names) == 0 {
		return []domain.CatalogEntry{}, nil
	}
	var entries []domain.CatalogEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT `+catalogColumns+` FROM pesticides
		 WHERE name_zh = ANY($1) OR name_en = ANY($1) OR name_es = ANY($1)
		 ORDER BY created_at, id`, names)
	if err != nil {
		return nil, fmt.Errorf("catalogRepo.FindByNames: %w", err)
	}
	return entries, nil
}

func (r *catalogRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.CatalogEntry, error) {
	if len(ids) == 0 {
		return []domain.CatalogEntry{}, nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	var entries []domain.CatalogEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT `+catalogColumns+` FROM pesticides WHERE id = ANY($1::uuid[])`, strIDs)
	if err != nil {
		return nil, fmt.Errorf("catalogRepo.FindByIDs: %w", err)
	}
	return entries, nil
}
