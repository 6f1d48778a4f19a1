package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"agroprice/internal/domain"
)

// Format selects the file type of a task export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a query value to a Format; empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", domain.NewValidationError("format", "unsupported export format %q; allowed: csv, xlsx", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the header row shared by the CSV and XLSX exports.
var columns = []string{
	"Image #",
	"Image Name",
	"Product Name",
	"Week End Date",
	"Unit Price",
	"Exchange Rate",
}

const sheetName = "Price Data"

// Writer wraps csv.Writer for exporting parsed price rows as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteTask writes one row per record parsed from the task's successful images.
func (w *Writer) WriteTask(task *domain.ParseTask) error {
	for _, row := range taskRows(task) {
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteCSV writes a complete CSV export of task, prefixed with a UTF-8 BOM.
func WriteCSV(out io.Writer, task *domain.ParseTask) error {
	if _, err := out.Write(BOM); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	if err := w.WriteTask(task); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	w.Flush()
	return w.Error()
}

// WriteXLSX writes a single-sheet workbook export of task.
func WriteXLSX(out io.Writer, task *domain.ParseTask) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("export.WriteXLSX: rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("export.WriteXLSX: header: %w", err)
	}

	rowNum := 2
	for i := range task.ImageResults {
		res := &task.ImageResults[i]
		if res.ParseStatus != domain.ParseStatusSuccess {
			continue
		}
		for _, rec := range res.ParsedData {
			cell, cerr := excelize.CoordinatesToCellName(1, rowNum)
			if cerr != nil {
				return fmt.Errorf("export.WriteXLSX: %w", cerr)
			}
			row := []interface{}{
				res.ImageIndex,
				res.ImageName,
				rec.ProductName,
				rec.WeekEndDate,
				rec.UnitPrice,
				task.ExchangeRate,
			}
			if err := sw.SetRow(cell, row); err != nil {
				return fmt.Errorf("export.WriteXLSX: row %d: %w", rowNum, err)
			}
			rowNum++
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export.WriteXLSX: flush: %w", err)
	}
	if err := f.Write(out); err != nil {
		return fmt.Errorf("export.WriteXLSX: write: %w", err)
	}
	return nil
}

func taskRows(task *domain.ParseTask) [][]string {
	var rows [][]string
	for i := range task.ImageResults {
		res := &task.ImageResults[i]
		if res.ParseStatus != domain.ParseStatusSuccess {
			continue
		}
		for _, rec := range res.ParsedData {
			rows = append(rows, []string{
				strconv.Itoa(res.ImageIndex),
				res.ImageName,
				rec.ProductName,
				rec.WeekEndDate,
				formatNumber(rec.UnitPrice),
				formatNumber(task.ExchangeRate),
			})
		}
	}
	return rows
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition header.
// Format: price_data_{taskID}_{YYYY-MM-DD}.{format}
func BuildFilename(taskID string, format Format, now time.Time) string {
	return fmt.Sprintf("price_data_%s_%s.%s", SanitizeFilename(taskID), now.Format("2006-01-02"), format)
}
