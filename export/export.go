// Package export writes ledger rows as CSV or XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"pto/dates"
	"pto/ledger"
)

const SheetName = "PTO"

var Header = []string{
	"ID", "Email", "First name", "Last name", "Date filed", "Start", "End",
	"Total hours", "Details", "City", "Country", "Start date",
}

func profileStart(row ledger.Row) string {
	if row.ProfileStartDate == nil {
		return ""
	}
	return dates.Format(*row.ProfileStartDate)
}

// Record is row in Header order.
func Record(row ledger.Row) []string {
	return []string{
		strconv.FormatUint(uint64(row.ID), 10),
		row.Email,
		row.FirstName,
		row.LastName,
		dates.Format(row.Filed),
		dates.Format(row.Start),
		dates.Format(row.End),
		strconv.Itoa(row.TotalHours),
		row.Details,
		row.City,
		row.Country,
		profileStart(row),
	}
}

func WriteCSV(w io.Writer, rows []ledger.Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(Record(row)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteXLSX(w io.Writer, rows []ledger.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			row.ID,
			row.Email,
			row.FirstName,
			row.LastName,
			dates.Format(row.Filed),
			dates.Format(row.Start),
			dates.Format(row.End),
			row.TotalHours,
			row.Details,
			row.City,
			row.Country,
			profileStart(row),
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("export: write row %d: %w", row.ID, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "B", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "I", "I", 40); err != nil {
		return err
	}
	return f.Write(w)
}
