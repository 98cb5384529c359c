package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	return rows
}

func TestCSVWriterRows(t *testing.T) {
	dir := t.TempDir()
	w := &CSVWriter{Dir: dir}
	if err := w.WriteTable("group001", testField()); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	rows := readRows(t, filepath.Join(dir, "group001_velocity.csv"))
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want header + 4 bins", len(rows))
	}
	if diff := cmp.Diff(csvHeader, rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	// First bin: distance 1, elevation -0.875, valid U with 2 samples, the
	// rest missing.
	got := rows[1]
	want := []string{
		"1.000", "-0.875",
		"0.500000", "NaN", "NaN",
		"2", "0", "0",
		"NaN", "NaN", "NaN",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("first bin mismatch (-want +got):\n%s", diff)
	}

	// Rows iterate distance-major, elevation within.
	if rows[2][0] != "1.000" || rows[2][1] != "-0.625" {
		t.Errorf("second row at (%s, %s), want (1.000, -0.625)", rows[2][0], rows[2][1])
	}
	if rows[3][0] != "3.000" {
		t.Errorf("third row distance = %s, want 3.000", rows[3][0])
	}
}

func TestCSVWriterNoHeader(t *testing.T) {
	dir := t.TempDir()
	w := &CSVWriter{Dir: dir, NoHeader: true}
	if err := w.WriteTable("group001", testField()); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	rows := readRows(t, filepath.Join(dir, "group001_velocity.csv"))
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4 data rows and no header", len(rows))
	}
	if rows[0][0] != "1.000" {
		t.Errorf("first row starts with %q, want a data row", rows[0][0])
	}
}
