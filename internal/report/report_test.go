package report

import (
	"encoding/csv"
	"os"
	"testing"

	"sellsort/internal/listing"
)

func summaryFixture(folder string) listing.Summary {
	return listing.Summary{
		ItemName:    "Blue Mug",
		Title:       "Blue Mug - Good Condition",
		Description: "A handmade blue ceramic mug.",
		Price:       12.5,
		Condition:   "Good",
		Category:    "Home & Garden",
		ImageCount:  2,
		FolderPath:  folder,
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open summary: %v", err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse summary: %v", err)
	}
	return records
}

func TestAppendOrUpdateCreatesCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "csv")

	path, err := w.AppendOrUpdate([]listing.Summary{summaryFixture("output/blue_mug")})
	if err != nil {
		t.Fatalf("AppendOrUpdate failed: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("Expected header + 1 row, got %d records", len(records))
	}
	if records[0][0] != "Item Name" {
		t.Errorf("Unexpected header: %v", records[0])
	}
	row := records[1]
	if row[1] != "Blue Mug - Good Condition" || row[3] != "12.50" || row[7] != "output/blue_mug" {
		t.Errorf("Unexpected row: %v", row)
	}
}

func TestAppendOrUpdateReplacesByFolderPath(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "csv")

	if _, err := w.AppendOrUpdate([]listing.Summary{summaryFixture("output/blue_mug")}); err != nil {
		t.Fatalf("First AppendOrUpdate failed: %v", err)
	}

	updated := summaryFixture("output/blue_mug")
	updated.ImageCount = 3
	other := summaryFixture("output/red_chair")
	path, err := w.AppendOrUpdate([]listing.Summary{updated, other})
	if err != nil {
		t.Fatalf("Second AppendOrUpdate failed: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d records", len(records))
	}
	if records[1][6] != "3" {
		t.Errorf("Expected blue_mug row updated to 3 images, got %v", records[1])
	}
	if records[2][7] != "output/red_chair" {
		t.Errorf("Expected new row appended, got %v", records[2])
	}
}

func TestParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "parquet")

	if _, err := w.AppendOrUpdate([]listing.Summary{summaryFixture("output/blue_mug")}); err != nil {
		t.Fatalf("First AppendOrUpdate failed: %v", err)
	}
	if _, err := w.AppendOrUpdate([]listing.Summary{summaryFixture("output/red_chair")}); err != nil {
		t.Fatalf("Second AppendOrUpdate failed: %v", err)
	}

	rows, err := w.load()
	if err != nil {
		t.Fatalf("Failed to load parquet summary: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows after parquet roundtrip, got %d", len(rows))
	}
	if rows[0].FolderPath != "output/blue_mug" || rows[1].FolderPath != "output/red_chair" {
		t.Errorf("Unexpected parquet rows: %v", rows)
	}
}

func TestUnknownFormatFallsBackToCSV(t *testing.T) {
	w := NewWriter(t.TempDir(), "xlsx")
	if w.format != "csv" {
		t.Errorf("Expected fallback to csv, got %s", w.format)
	}
}
