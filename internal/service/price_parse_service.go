package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"agroprice/internal/domain"
	"agroprice/internal/imageprep"
	"agroprice/internal/matcher"
	"agroprice/internal/port"
	"agroprice/internal/validator"
)

// persistTimeout bounds task store writes made on behalf of a task whose own context
// may already be cancelled.
const persistTimeout = 10 * time.Second

// CreateTaskInput is the DTO for starting a parse task.
type CreateTaskInput struct {
	Images       []domain.ImageFile
	ExchangeRate float64
	CreatedBy    uuid.UUID
}

// CreateTaskOutput is returned as soon as a task is accepted.
type CreateTaskOutput struct {
	TaskID        string `json:"taskId"`
	TotalImages   int    `json:"totalImages"`
	EstimatedTime string `json:"estimatedTime"`
}

// SavePriceDataInput is the DTO for persisting reviewed price data.
type SavePriceDataInput struct {
	TaskID       string                     `json:"taskId"`
	ExchangeRate float64                    `json:"exchangeRate"`
	PriceData    []domain.ParsedPriceRecord `json:"priceData"`
}

// ParseServiceConfig holds orchestration settings.
type ParseServiceConfig struct {
	MaxImages int
	AutoSave  bool
}

// PriceParseService orchestrates background parsing of price table images and the
// saving of the extracted rows.
type PriceParseService interface {
	CreateTask(ctx context.Context, input CreateTaskInput) (*CreateTaskOutput, error)
	GetTaskStatus(ctx context.Context, taskID string) (*domain.ParseTask, error)
	ListTasks(ctx context.Context) ([]domain.ParseTask, error)
	CancelTask(ctx context.Context, taskID string) error
	SavePriceData(ctx context.Context, input SavePriceDataInput) (*domain.SaveResult, error)
}

type priceParseService struct {
	store       port.TaskStore
	pool        *TaskPool
	catalogRepo port.CatalogRepository
	extractor   port.PriceExtractor
	uploader    port.ImageUploader
	prep        *imageprep.Preprocessor
	trendSvc    PriceTrendService
	rules       *validator.Registry
	cfg         ParseServiceConfig
	now         func() time.Time
}

// NewPriceParseService creates a new PriceParseService implementation.
func NewPriceParseService(
	store port.TaskStore,
	pool *TaskPool,
	catalogRepo port.CatalogRepository,
	extractor port.PriceExtractor,
	uploader port.ImageUploader,
	prep *imageprep.Preprocessor,
	trendSvc PriceTrendService,
	cfg ParseServiceConfig,
) PriceParseService {
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = domain.MaxImagesPerTask
	}
	return &priceParseService{
		store:       store,
		pool:        pool,
		catalogRepo: catalogRepo,
		extractor:   extractor,
		uploader:    uploader,
		prep:        prep,
		trendSvc:    trendSvc,
		rules:       validator.DefaultRecordRules(),
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *priceParseService) CreateTask(ctx context.Context, input CreateTaskInput) (*CreateTaskOutput, error) {
	if len(input.Images) == 0 {
		return nil, domain.NewValidationError("images", "at least one image is required")
	}
	if len(input.Images) > s.cfg.MaxImages {
		return nil, domain.NewValidationError("images", "at most %d images are allowed, got %d", s.cfg.MaxImages, len(input.Images))
	}
	if input.ExchangeRate <= 0 {
		return nil, domain.NewValidationError("exchangeRate", "must be greater than 0")
	}

	task := &domain.ParseTask{
		ID:           uuid.New().String(),
		Status:       domain.TaskStatusProcessing,
		TotalImages:  len(input.Images),
		ExchangeRate: input.ExchangeRate,
		ImageResults: make([]domain.ImageResult, len(input.Images)),
		GlobalErrors: []string{},
		CreatedBy:    input.CreatedBy,
		CreatedAt:    s.now().UTC(),
	}
	for i, img := range input.Images {
		task.ImageResults[i] = domain.ImageResult{
			ImageIndex:  i + 1,
			ImageName:   img.Name,
			ParsedData:  []domain.ParsedPriceRecord{},
			ParseStatus: domain.ParseStatusSuccess,
		}
	}

	if err := s.store.Set(ctx, task); err != nil {
		return nil, fmt.Errorf("priceParseService.CreateTask: storing task: %w", err)
	}

	images := append([]domain.ImageFile(nil), input.Images...)
	err := s.pool.Submit(task.ID, func(taskCtx context.Context) {
		s.processTask(taskCtx, task, images)
	})
	if err != nil {
		log.Printf("priceParseService.CreateTask: task %s not accepted: %v", task.ID, err)
		s.failTask(task, err.Error())
		return nil, err
	}

	log.Printf("priceParseService.CreateTask: task %s queued with %d images by %s",
		task.ID, task.TotalImages, input.CreatedBy)

	return &CreateTaskOutput{
		TaskID:        task.ID,
		TotalImages:   task.TotalImages,
		EstimatedTime: EstimateProcessingTime(task.TotalImages),
	}, nil
}

// EstimateProcessingTime returns a human-readable processing estimate for n images.
func EstimateProcessingTime(n int) string {
	switch {
	case n <= 3:
		return "about 30 seconds"
	case n <= 6:
		return "about 1-2 minutes"
	default:
		return "about 2-3 minutes"
	}
}

func (s *priceParseService) GetTaskStatus(ctx context.Context, taskID string) (*domain.ParseTask, error) {
	return s.store.Get(ctx, taskID)
}

func (s *priceParseService) ListTasks(ctx context.Context) ([]domain.ParseTask, error) {
	return s.store.List(ctx)
}

func (s *priceParseService) CancelTask(ctx context.Context, taskID string) error {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Finished() {
		return domain.ErrTaskFinished
	}
	if !s.pool.Cancel(taskID) {
		// Known to the shared store but executing in another instance.
		return fmt.Errorf("task %s is not running in this instance: %w", taskID, domain.ErrTaskNotFound)
	}
	log.Printf("priceParseService.CancelTask: cancellation requested for task %s", taskID)
	return nil
}

// processTask is the background worker body. Images are handled strictly in order; a
// failing image is recorded on its result and does not stop the task.
func (s *priceParseService) processTask(ctx context.Context, task *domain.ParseTask, images []domain.ImageFile) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("priceParseService.processTask: task %s panicked: %v", task.ID, r)
			s.failTask(task, fmt.Sprintf("internal error: %v", r))
		}
	}()

	log.Printf("priceParseService.processTask: task %s started (%d images)", task.ID, len(images))

	if ctx.Err() != nil {
		s.failTask(task, cancelReason(ctx))
		return
	}

	names, err := s.catalogRepo.ListAllNames(ctx)
	if err != nil {
		s.failTask(task, fmt.Sprintf("loading reference catalog: %v", err))
		return
	}

	for i := range images {
		if ctx.Err() != nil {
			s.failTask(task, cancelReason(ctx))
			return
		}

		s.processImage(ctx, task, i, images[i], names)
		images[i].Data = nil
		task.MarkProcessed()

		if err := s.persist(task); err != nil {
			s.failTask(task, fmt.Sprintf("storing progress: %v", err))
			return
		}
	}

	// The last image may have finished after a cancel or deadline.
	if ctx.Err() != nil {
		s.failTask(task, cancelReason(ctx))
		return
	}

	if s.cfg.AutoSave {
		result, err := s.savePriceData(ctx, task.AllParsedData(), task.ExchangeRate)
		if err != nil {
			task.GlobalErrors = append(task.GlobalErrors, fmt.Sprintf("auto-save failed: %v", err))
		} else {
			task.SaveResult = result
		}
	}

	completedAt := s.now().UTC()
	task.Status = domain.TaskStatusCompleted
	task.CompletedAt = &completedAt
	if err := s.persist(task); err != nil {
		log.Printf("priceParseService.processTask: task %s completed but could not be stored: %v", task.ID, err)
		return
	}

	log.Printf("priceParseService.processTask: task %s completed (%d records from %d images)",
		task.ID, task.TotalParsedData, task.ProcessedImages)
}

func (s *priceParseService) processImage(ctx context.Context, task *domain.ParseTask, i int, img domain.ImageFile, names []string) {
	res := &task.ImageResults[i]

	fail := func(err error) {
		log.Printf("priceParseService.processImage: task %s image %d (%s) failed: %v", task.ID, res.ImageIndex, img.Name, err)
		res.ParseStatus = domain.ParseStatusFailed
		res.ErrorMessage = err.Error()
		res.ParsedData = []domain.ParsedPriceRecord{}
	}

	if err := validator.ValidateImage(img); err != nil {
		fail(err)
		return
	}

	prepared, err := s.prep.Prepare(img)
	if err != nil {
		log.Printf("priceParseService.processImage: preprocessing %s failed, uploading original: %v", img.Name, err)
		prepared = img
	}

	url, err := s.uploader.Upload(ctx, port.ImageUploadInput{
		Data:        prepared.Data,
		Filename:    prepared.Name,
		ContentType: prepared.ContentType,
		Size:        prepared.Size(),
		OwnerID:     task.CreatedBy.String(),
		Category:    domain.StorageCategoryPriceImages,
	})
	if err != nil {
		fail(fmt.Errorf("uploading image: %w", err))
		return
	}
	res.ImageURL = url

	records, err := s.extractor.Extract(ctx, url, names)
	if err != nil {
		fail(err)
		return
	}
	if records == nil {
		records = []domain.ParsedPriceRecord{}
	}
	res.ParseStatus = domain.ParseStatusSuccess
	res.ErrorMessage = ""
	res.ParsedData = records
}

// failTask marks the task failed with reason and stores it. Store errors are only logged.
func (s *priceParseService) failTask(task *domain.ParseTask, reason string) {
	completedAt := s.now().UTC()
	task.Status = domain.TaskStatusFailed
	task.GlobalErrors = append(task.GlobalErrors, reason)
	task.CompletedAt = &completedAt
	if err := s.persist(task); err != nil {
		log.Printf("priceParseService.failTask: storing failed task %s: %v", task.ID, err)
	}
	log.Printf("priceParseService.failTask: task %s failed: %s", task.ID, reason)
}

func (s *priceParseService) persist(task *domain.ParseTask) error {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	return s.store.Set(ctx, task)
}

func cancelReason(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "task timed out"
	}
	return domain.ErrTaskCancelled.Error()
}

func (s *priceParseService) SavePriceData(ctx context.Context, input SavePriceDataInput) (*domain.SaveResult, error) {
	data := input.PriceData
	rate := input.ExchangeRate

	if input.TaskID != "" {
		task, err := s.store.Get(ctx, input.TaskID)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			data = task.AllParsedData()
		}
		if rate <= 0 {
			rate = task.ExchangeRate
		}
	}

	if rate <= 0 {
		return nil, domain.NewValidationError("exchangeRate", "must be greater than 0")
	}
	if len(data) == 0 {
		return nil, domain.NewValidationError("priceData", "no price data to save")
	}

	return s.savePriceData(ctx, data, rate)
}

// savePriceData matches every record against the catalog and persists the matched ones.
// Unmatched or malformed records are reported as failed saves without blocking the rest.
func (s *priceParseService) savePriceData(ctx context.Context, data []domain.ParsedPriceRecord, rate float64) (*domain.SaveResult, error) {
	entries, err := s.catalogRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("priceParseService.SavePriceData: loading catalog: %w", err)
	}
	m := matcher.New(entries)

	result := &domain.SaveResult{
		TotalItems: len(data),
		SavedData:  []domain.PriceTrendRecord{},
		Skipped:    []domain.PriceTrendRecord{},
		Errors:     []string{},
	}

	records := make([]domain.PriceTrendRecord, 0, len(data))
	for _, item := range data {
		match := m.Match(item.ProductName)
		id, ok := match.Matched()
		if !ok {
			result.FailedSaves++
			result.Errors = append(result.Errors, match.MatchError(item.ProductName).Error())
			continue
		}
		if verr := s.rules.ValidateRecord(item); verr != nil {
			result.FailedSaves++
			result.Errors = append(result.Errors, verr.Error())
			continue
		}
		week, _ := time.Parse(validator.WeekEndDateLayout, item.WeekEndDate)
		records = append(records, domain.PriceTrendRecord{
			PesticideID:  id,
			WeekEndDate:  week,
			UnitPrice:    item.UnitPrice,
			ExchangeRate: rate,
		})
	}

	if len(records) > 0 {
		batch, err := s.trendSvc.BatchCreate(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("priceParseService.SavePriceData: %w", err)
		}
		result.SuccessfulSaves = len(batch.Inserted)
		result.SkippedSaves = len(batch.Conflicted)
		result.Skipped = append(result.Skipped, batch.Conflicted...)
		result.SavedData = append(result.SavedData, batch.Inserted...)
		for _, f := range batch.Failed {
			result.FailedSaves++
			result.Errors = append(result.Errors, fmt.Sprintf("saving %s for week %s: %s",
				f.Record.PesticideID, f.Record.WeekEndDate.Format(validator.WeekEndDateLayout), f.Error))
		}
	}

	log.Printf("priceParseService.SavePriceData: %d items, %d saved, %d skipped, %d failed",
		result.TotalItems, result.SuccessfulSaves, result.SkippedSaves, result.FailedSaves)
	return result, nil
}
