package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImageFile is an uploaded image held in memory until it is processed.
type ImageFile struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// Size returns the image size in bytes.
func (f ImageFile) Size() int64 {
	return int64(len(f.Data))
}

// ParsedPriceRecord is a (productName, weekEndDate, unitPrice) triple extracted from an image
// before catalog matching.
type ParsedPriceRecord struct {
	ProductName string  `json:"productName"`
	WeekEndDate string  `json:"weekEndDate"`
	UnitPrice   float64 `json:"unitPrice"`
}

// ImageResult holds the parse outcome of one image in a task.
type ImageResult struct {
	ImageIndex   int                 `json:"imageIndex"`
	ImageName    string              `json:"imageName"`
	ImageURL     string              `json:"imageUrl"`
	ParsedData   []ParsedPriceRecord `json:"parsedData"`
	ParseStatus  ParseStatus         `json:"parseStatus"`
	ErrorMessage string              `json:"errorMessage,omitempty"`
}

// ParseTask tracks one batch of uploaded price table images.
type ParseTask struct {
	ID              string        `json:"id"`
	Status          TaskStatus    `json:"status"`
	TotalImages     int           `json:"totalImages"`
	ProcessedImages int           `json:"processedImages"`
	Progress        int           `json:"progress"`
	TotalParsedData int           `json:"totalParsedData"`
	ExchangeRate    float64       `json:"exchangeRate"`
	ImageResults    []ImageResult `json:"imageResults"`
	GlobalErrors    []string      `json:"globalErrors"`
	SaveResult      *SaveResult   `json:"saveResult,omitempty"`
	CreatedBy       uuid.UUID     `json:"createdBy"`
	CreatedAt       time.Time     `json:"createdAt"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty"`
}

// Finished reports whether the task reached a terminal status.
func (t *ParseTask) Finished() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// MarkProcessed records that one more image has been handled and recomputes progress.
func (t *ParseTask) MarkProcessed() {
	if t.ProcessedImages < t.TotalImages {
		t.ProcessedImages++
	}
	if t.TotalImages > 0 {
		t.Progress = t.ProcessedImages * 100 / t.TotalImages
	}
	total := 0
	for i := range t.ImageResults {
		total += len(t.ImageResults[i].ParsedData)
	}
	t.TotalParsedData = total
}

// AllParsedData returns the parsed records of every successful image in image order.
func (t *ParseTask) AllParsedData() []ParsedPriceRecord {
	var out []ParsedPriceRecord
	for i := range t.ImageResults {
		if t.ImageResults[i].ParseStatus == ParseStatusSuccess {
			out = append(out, t.ImageResults[i].ParsedData...)
		}
	}
	return out
}

// Clone returns a deep copy safe to hand to callers while the worker keeps mutating the original.
func (t *ParseTask) Clone() *ParseTask {
	c := *t
	c.ImageResults = make([]ImageResult, len(t.ImageResults))
	for i, r := range t.ImageResults {
		r.ParsedData = append([]ParsedPriceRecord(nil), r.ParsedData...)
		if r.ParsedData == nil {
			r.ParsedData = []ParsedPriceRecord{}
		}
		c.ImageResults[i] = r
	}
	c.GlobalErrors = append([]string{}, t.GlobalErrors...)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.SaveResult != nil {
		sr := *t.SaveResult
		c.SaveResult = &sr
	}
	return &c
}

// CatalogEntry is a reference pesticide with its multilingual names.
type CatalogEntry struct {
	ID     uuid.UUID `db:"id" json:"id"`
	NameZH string    `db:"name_zh" json:"nameZh"`
	NameEN string    `db:"name_en" json:"nameEn"`
	NameES string    `db:"name_es" json:"nameEs"`
}

// Names returns the non-empty name variants of the entry: primary, secondary, tertiary.
func (e CatalogEntry) Names() []string {
	names := make([]string, 0, 3)
	for _, n := range []string{e.NameZH, e.NameEN, e.NameES} {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

// PriceTrendRecord is a persisted weekly price point for a catalog pesticide.
type PriceTrendRecord struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PesticideID  uuid.UUID `db:"pesticide_id" json:"pesticideId"`
	WeekEndDate  time.Time `db:"week_end_date" json:"weekEndDate"`
	UnitPrice    float64   `db:"unit_price" json:"unitPrice"`
	ExchangeRate float64   `db:"exchange_rate" json:"exchangeRate"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// FailedRecord pairs a record that could not be persisted with the reason.
type FailedRecord struct {
	Record PriceTrendRecord `json:"record"`
	Error  string           `json:"error"`
}

// BatchResult is the outcome of persisting a batch of price trend records.
// Conflicted records already existed and were left untouched.
type BatchResult struct {
	Inserted   []PriceTrendRecord `json:"inserted"`
	Conflicted []PriceTrendRecord `json:"conflicted"`
	Failed     []FailedRecord     `json:"failed"`
}

// SaveResult summarizes a save of user-reviewed price data.
type SaveResult struct {
	TotalItems      int                `json:"totalItems"`
	SuccessfulSaves int                `json:"successfulSaves"`
	FailedSaves     int                `json:"failedSaves"`
	SkippedSaves    int                `json:"skippedSaves"`
	SavedData       []PriceTrendRecord `json:"savedData"`
	Skipped         []PriceTrendRecord `json:"skipped"`
	Errors          []string           `json:"errors"`
}

// Success reports whether the save persisted anything or had nothing to fail.
func (r *SaveResult) Success() bool {
	return r.FailedSaves == 0 || r.SuccessfulSaves > 0
}
