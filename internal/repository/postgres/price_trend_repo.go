package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"agroprice/internal/domain"
	"agroprice/internal/port"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

type priceTrendRepo struct {
	db *sqlx.DB
}

// NewPriceTrendRepo creates a new PostgreSQL-backed PriceTrendRepository.
func NewPriceTrendRepo(db *sqlx.DB) port.PriceTrendRepository {
	return &priceTrendRepo{db: db}
}

const priceTrendColumns = `id, pesticide_id, week_end_date, unit_price, exchange_rate, created_at, updated_at`

func (r *priceTrendRepo) BulkInsert(ctx context.Context, records []domain.PriceTrendRecord) ([]domain.PriceTrendRecord, error) {
	if len(records) == 0 {
		return []domain.PriceTrendRecord{}, nil
	}

	now := time.Now().UTC()
	const cols = 7
	values := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*cols)
	for i := range records {
		prepareRecord(&records[i], now)
		rec := records[i]
		base := i * cols
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, rec.ID, rec.PesticideID, rec.WeekEndDate, rec.UnitPrice,
			rec.ExchangeRate, rec.CreatedAt, rec.UpdatedAt)
	}

	query := `INSERT INTO pesticide_price_trends (` + priceTrendColumns + `)
		VALUES ` + strings.Join(values, ", ") + `
		ON CONFLICT (pesticide_id, week_end_date) DO NOTHING
		RETURNING ` + priceTrendColumns

	var inserted []domain.PriceTrendRecord
	if err := r.db.SelectContext(ctx, &inserted, query, args...); err != nil {
		return nil, fmt.Errorf("priceTrendRepo.BulkInsert: %w", err)
	}
	return inserted, nil
}

func (r *priceTrendRepo) Insert(ctx context.Context, record *domain.PriceTrendRecord) error {
	prepareRecord(record, time.Now().UTC())

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pesticide_price_trends (`+priceTrendColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.PesticideID, record.WeekEndDate, record.UnitPrice,
		record.ExchangeRate, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("priceTrendRepo.Insert: %w", domain.ErrPersistenceConflict)
		}
		return fmt.Errorf("priceTrendRepo.Insert: %w", err)
	}
	return nil
}

func prepareRecord(rec *domain.PriceTrendRecord, now time.Time) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
