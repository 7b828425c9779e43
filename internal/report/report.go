// Package report writes the master summary spreadsheet covering every
// organized item, as CSV or Parquet.
package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"sellsort/internal/listing"
)

// Row is one spreadsheet row. Rows are keyed by folder path: a rerun that
// touches the same folder replaces its row instead of appending.
type Row struct {
	ItemName    string  `parquet:"item_name"`
	Title       string  `parquet:"title"`
	Description string  `parquet:"description"`
	Price       float64 `parquet:"price"`
	Condition   string  `parquet:"condition"`
	Category    string  `parquet:"category"`
	ImageCount  int64   `parquet:"image_count"`
	FolderPath  string  `parquet:"folder_path"`
}

var csvHeader = []string{
	"Item Name", "Title", "Description", "Price",
	"Condition", "Category", "Image Count", "Folder Path",
}

// Writer maintains the summary file in the output folder.
type Writer struct {
	path   string
	format string
}

// NewWriter creates a summary writer. Format is "csv" or "parquet".
func NewWriter(outputDir, format string) *Writer {
	if format != "parquet" {
		format = "csv"
	}
	return &Writer{
		path:   filepath.Join(outputDir, "summary."+format),
		format: format,
	}
}

// Path returns the summary file location.
func (w *Writer) Path() string {
	return w.path
}

// AppendOrUpdate merges new summaries into the existing spreadsheet,
// replacing rows whose folder path matches, and rewrites the file.
func (w *Writer) AppendOrUpdate(summaries []listing.Summary) (string, error) {
	existing, err := w.load()
	if err != nil {
		slog.Warn("Could not read existing summary, overwriting", "path", w.path, "err", err)
		existing = nil
	}

	index := make(map[string]int, len(existing))
	for i, row := range existing {
		index[row.FolderPath] = i
	}
	merged := existing
	for _, s := range summaries {
		row := Row{
			ItemName:    s.ItemName,
			Title:       s.Title,
			Description: s.Description,
			Price:       s.Price,
			Condition:   s.Condition,
			Category:    s.Category,
			ImageCount:  int64(s.ImageCount),
			FolderPath:  s.FolderPath,
		}
		if i, ok := index[row.FolderPath]; ok {
			merged[i] = row
		} else {
			index[row.FolderPath] = len(merged)
			merged = append(merged, row)
		}
	}

	if err := w.write(merged); err != nil {
		return "", err
	}
	slog.Info("Generated summary spreadsheet", "path", w.path, "items", len(merged))
	return w.path, nil
}

func (w *Writer) load() ([]Row, error) {
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		return nil, nil
	}
	if w.format == "parquet" {
		return w.loadParquet()
	}
	return w.loadCSV()
}

func (w *Writer) write(rows []Row) error {
	if w.format == "parquet" {
		return w.writeParquet(rows)
	}
	return w.writeCSV(rows)
}

func (w *Writer) loadCSV() ([]Row, error) {
	file, err := os.Open(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open summary file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read summary file: %w", err)
	}

	var rows []Row
	for i, record := range records {
		if i == 0 || len(record) < len(csvHeader) {
			continue
		}
		price, _ := strconv.ParseFloat(record[3], 64)
		count, _ := strconv.ParseInt(record[6], 10, 64)
		rows = append(rows, Row{
			ItemName:    record[0],
			Title:       record[1],
			Description: record[2],
			Price:       price,
			Condition:   record[4],
			Category:    record[5],
			ImageCount:  count,
			FolderPath:  record[7],
		})
	}
	return rows, nil
}

func (w *Writer) writeCSV(rows []Row) error {
	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.ItemName,
			row.Title,
			row.Description,
			strconv.FormatFloat(row.Price, 'f', 2, 64),
			row.Condition,
			row.Category,
			strconv.FormatInt(row.ImageCount, 10),
			row.FolderPath,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (w *Writer) loadParquet() ([]Row, error) {
	file, err := os.Open(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open summary file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat summary file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	var rows []Row
	batch := make([]Row, 64)
	for {
		n, err := reader.Read(batch)
		if n > 0 {
			rows = append(rows, batch[:n]...)
		}
		if err != nil {
			break
		}
	}
	return rows, nil
}

func (w *Writer) writeParquet(rows []Row) error {
	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Row](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
