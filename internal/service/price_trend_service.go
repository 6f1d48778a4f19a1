package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"agroprice/internal/domain"
	"agroprice/internal/port"
)

// PriceTrendService persists matched weekly price points.
type PriceTrendService interface {
	// BatchCreate inserts records in one statement where possible. Records that already
	// exist are reported as Conflicted. When the bulk statement fails, each record is
	// inserted on its own and failures are collected without undoing the others.
	BatchCreate(ctx context.Context, records []domain.PriceTrendRecord) (*domain.BatchResult, error)
}

type priceTrendService struct {
	trendRepo   port.PriceTrendRepository
	catalogRepo port.CatalogRepository
}

// NewPriceTrendService creates a new PriceTrendService implementation.
func NewPriceTrendService(trendRepo port.PriceTrendRepository, catalogRepo port.CatalogRepository) PriceTrendService {
	return &priceTrendService{trendRepo: trendRepo, catalogRepo: catalogRepo}
}

func (s *priceTrendService) BatchCreate(ctx context.Context, records []domain.PriceTrendRecord) (*domain.BatchResult, error) {
	result := &domain.BatchResult{
		Inserted:   []domain.PriceTrendRecord{},
		Conflicted: []domain.PriceTrendRecord{},
		Failed:     []domain.FailedRecord{},
	}
	if len(records) == 0 {
		return result, nil
	}

	if err := s.checkPesticidesExist(ctx, records); err != nil {
		return nil, err
	}

	batch := make([]domain.PriceTrendRecord, len(records))
	copy(batch, records)
	for i := range batch {
		if batch[i].ID == uuid.Nil {
			batch[i].ID = uuid.New()
		}
	}

	inserted, err := s.trendRepo.BulkInsert(ctx, batch)
	if err == nil {
		created := make(map[uuid.UUID]struct{}, len(inserted))
		for _, rec := range inserted {
			created[rec.ID] = struct{}{}
		}
		result.Inserted = append(result.Inserted, inserted...)
		for _, rec := range batch {
			if _, ok := created[rec.ID]; !ok {
				result.Conflicted = append(result.Conflicted, rec)
			}
		}
		log.Printf("priceTrendService.BatchCreate: bulk insert of %d records: %d inserted, %d already present",
			len(batch), len(result.Inserted), len(result.Conflicted))
		return result, nil
	}

	log.Printf("priceTrendService.BatchCreate: bulk insert failed, falling back to per-record inserts: %v", err)

	for i := range batch {
		rec := batch[i]
		if err := s.trendRepo.Insert(ctx, &rec); err != nil {
			log.Printf("priceTrendService.BatchCreate: record %s (%s) failed: %v",
				rec.PesticideID, rec.WeekEndDate.Format("2006-01-02"), err)
			result.Failed = append(result.Failed, domain.FailedRecord{Record: batch[i], Error: describeInsertError(err)})
			continue
		}
		result.Inserted = append(result.Inserted, rec)
	}
	return result, nil
}

func (s *priceTrendService) checkPesticidesExist(ctx context.Context, records []domain.PriceTrendRecord) error {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, r := range records {
		if _, ok := seen[r.PesticideID]; ok {
			continue
		}
		seen[r.PesticideID] = struct{}{}
		ids = append(ids, r.PesticideID)
	}

	found, err := s.catalogRepo.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("priceTrendService.BatchCreate: loading pesticides: %w", err)
	}
	existing := make(map[uuid.UUID]struct{}, len(found))
	for _, e := range found {
		existing[e.ID] = struct{}{}
	}

	var missing []string
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return &domain.NotFoundError{Resource: "pesticide", IDs: missing}
	}
	return nil
}

func describeInsertError(err error) string {
	if errors.Is(err, domain.ErrPersistenceConflict) {
		return domain.ErrPersistenceConflict.Error()
	}
	return err.Error()
}
