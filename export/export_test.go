package export

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"pto/ledger"
)

func sampleRows() []ledger.Row {
	start := time.Date(2009, 3, 2, 0, 0, 0, 0, time.UTC)
	return []ledger.Row{
		{
			ID:               3,
			Email:            "peter@example.com",
			FirstName:        "Peter",
			LastName:         "Bengtsson",
			Filed:            time.Date(2011, 6, 20, 10, 0, 0, 0, time.UTC),
			TotalHours:       16,
			Start:            time.Date(2011, 7, 4, 0, 0, 0, 0, time.UTC),
			End:              time.Date(2011, 7, 5, 0, 0, 0, 0, time.UTC),
			City:             "London",
			Country:          "GB",
			Details:          "Camping, with \"friends\"",
			ProfileStartDate: &start,
		},
		{
			ID:         4,
			Email:      "laura@example.com",
			FirstName:  "Laura",
			Filed:      time.Date(2011, 6, 21, 10, 0, 0, 0, time.UTC),
			TotalHours: -8,
			Start:      time.Date(2011, 7, 4, 0, 0, 0, 0, time.UTC),
			End:        time.Date(2011, 7, 4, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if !reflect.DeepEqual(records[0], Header) {
		t.Errorf("header = %v", records[0])
	}
	want := []string{"3", "peter@example.com", "Peter", "Bengtsson", "2011-06-20", "2011-07-04", "2011-07-05", "16", "Camping, with \"friends\"", "London", "GB", "2009-03-02"}
	if !reflect.DeepEqual(records[1], want) {
		t.Errorf("row = %v, want %v", records[1], want)
	}
	if records[2][7] != "-8" || records[2][11] != "" {
		t.Errorf("second row = %v", records[2])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil || len(records) != 1 {
		t.Errorf("records = %v, %v; want header only", records, err)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); !reflect.DeepEqual(sheets, []string{SheetName}) {
		t.Errorf("sheets = %v", sheets)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if !reflect.DeepEqual(rows[0], Header) {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "3" || rows[1][1] != "peter@example.com" || rows[1][7] != "16" || rows[1][11] != "2009-03-02" {
		t.Errorf("first row = %v", rows[1])
	}
	if rows[2][7] != "-8" {
		t.Errorf("second row total = %q", rows[2][7])
	}
}
