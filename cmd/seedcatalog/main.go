// Command seedcatalog converts the pesticide catalog spreadsheet into a SQL seed file.
// The first sheet must hold one pesticide per row: Chinese, English and Spanish names.
// Usage: go run ./cmd/seedcatalog --in catalog.xlsx --out db/seeds/pesticides.sql
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

const batchSize = 500

// catalogNamespace seeds deterministic pesticide IDs so re-running the seed is a no-op.
var catalogNamespace = uuid.MustParse("6f0d7e1c-3a57-4b8e-9d2a-5c1f0b7a4e93")

type catalogRow struct {
	id     uuid.UUID
	nameZH string
	nameEN string
	nameES string
}

// columnLayout holds the zero-based column index of each name.
type columnLayout struct {
	zh, en, es int
}

var defaultLayout = columnLayout{zh: 0, en: 1, es: 2}

var (
	inPath  string
	outPath string
	sheet   string
)

var rootCmd = &cobra.Command{
	Use:          "seedcatalog",
	Short:        "Generate the pesticides SQL seed from a catalog spreadsheet",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(inPath, outPath, sheet)
	},
}

func init() {
	rootCmd.Flags().StringVar(&inPath, "in", "pesticide_catalog.xlsx", "catalog spreadsheet")
	rootCmd.Flags().StringVar(&outPath, "out", "db/seeds/pesticides.sql", "output SQL file")
	rootCmd.Flags().StringVar(&sheet, "sheet", "", "sheet name (defaults to the first sheet)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(in, out, sheetName string) error {
	f, err := excelize.OpenFile(in)
	if err != nil {
		return fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := readCatalog(f, sheetName)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	log.Printf("catalog sheet: %d pesticides", len(rows))

	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := writeSeed(file, rows); err != nil {
		return err
	}

	log.Printf("Generated %d entries (%d batches) in %s",
		len(rows), (len(rows)+batchSize-1)/batchSize, out)
	return nil
}

// readCatalog reads pesticide names from the sheet. A header row is recognised by its
// labels and sets the column layout; otherwise columns A, B and C are used.
func readCatalog(f *excelize.File, sheetName string) ([]catalogRow, error) {
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	layout := defaultLayout
	start := 0
	if len(rows) > 0 {
		if l, ok := detectHeader(rows[0]); ok {
			layout = l
			start = 1
		}
	}

	seen := make(map[string]bool)
	var entries []catalogRow
	for i := start; i < len(rows); i++ {
		row := rows[i]
		zh := strings.TrimSpace(cellVal(row, layout.zh))
		if zh == "" || seen[zh] {
			continue
		}
		seen[zh] = true
		entries = append(entries, catalogRow{
			id:     uuid.NewSHA1(catalogNamespace, []byte(zh)),
			nameZH: zh,
			nameEN: strings.TrimSpace(cellVal(row, layout.en)),
			nameES: strings.TrimSpace(cellVal(row, layout.es)),
		})
	}
	return entries, nil
}

func detectHeader(row []string) (columnLayout, bool) {
	layout := columnLayout{zh: -1, en: -1, es: -1}
	for i, cell := range row {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "name_zh", "chinese", "中文名", "中文名称":
			layout.zh = i
		case "name_en", "english", "英文名", "英文名称":
			layout.en = i
		case "name_es", "spanish", "西语名", "西班牙语名称":
			layout.es = i
		}
	}
	return layout, layout.zh >= 0
}

func writeSeed(out io.Writer, entries []catalogRow) error {
	w := func(s string) error { _, werr := fmt.Fprintln(out, s); return werr }

	for _, line := range []string{
		"-- Pesticide catalog seed data generated from Excel.",
		fmt.Sprintf("-- %d entries in batches of %d.", len(entries), batchSize),
		"BEGIN;",
		"",
	} {
		if werr := w(line); werr != nil {
			return fmt.Errorf("write header: %w", werr)
		}
	}

	for i := 0; i < len(entries); i += batchSize {
		end := i + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := writeBatch(out, entries[i:end]); err != nil {
			return fmt.Errorf("write batch at offset %d: %w", i, err)
		}
	}

	for _, line := range []string{"", "COMMIT;"} {
		if werr := w(line); werr != nil {
			return fmt.Errorf("write footer: %w", werr)
		}
	}
	return nil
}

func writeBatch(out io.Writer, batch []catalogRow) error {
	if len(batch) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO pesticides (id, name_zh, name_en, name_es) VALUES\n")
	for i := range batch {
		e := &batch[i]
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "  ('%s', '%s', '%s', '%s')",
			e.id, escapeSQL(e.nameZH), escapeSQL(e.nameEN), escapeSQL(e.nameES))
	}
	b.WriteString("\nON CONFLICT (id) DO NOTHING;\n")

	_, err := io.WriteString(out, b.String())
	return err
}

func cellVal(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
