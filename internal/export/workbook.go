// Package export renders calendar months as spreadsheets.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/example/exterminus/internal/application"
	"github.com/example/exterminus/internal/schedule"
)

const (
	jobsSheet    = "Jobs"
	timeOffSheet = "Time Off"
	defaultSheet = "Sheet1"
)

var jobHeader = []string{"Date", "Weekday", "Holiday", "Locked", "Job ID", "Title", "Type", "Technician", "Time", "Price", "Notes"}

var jobColumnWidths = []float64{12, 11, 24, 8, 8, 30, 14, 20, 10, 10, 40}

var timeOffHeader = []string{"Technician", "Start", "End", "Reason"}

// MonthWorkbook writes view as an XLSX workbook to w. The Jobs sheet has one
// row per (date, job) for the dates of the month itself, not the padding
// days of the grid. Both sheets freeze their header row.
func MonthWorkbook(view application.MonthView, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, jobsSheet); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	if err := writeHeader(f, jobsSheet, jobHeader, headerStyle); err != nil {
		return err
	}
	for i, width := range jobColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("export: column name: %w", err)
		}
		if err := f.SetColWidth(jobsSheet, col, col, width); err != nil {
			return fmt.Errorf("export: column width: %w", err)
		}
	}

	row := 2
	grid := schedule.NewMonthGrid(view.Year, view.Month)
	for _, day := range grid.MonthSpan().Days() {
		key := schedule.FormatDate(day)
		for _, job := range view.JobsByDate[key] {
			values := []any{
				key,
				day.Weekday().String(),
				view.Holidays[key],
				yesNo(view.Locked[key]),
				job.ID,
				job.DisplayTitle,
				job.JobType,
				job.TechnicianLabel,
				job.TimeRange,
				"",
				job.Notes,
			}
			if job.Price != nil {
				values[9] = *job.Price
			}
			if err := writeRow(f, jobsSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}

	if _, err := f.NewSheet(timeOffSheet); err != nil {
		return fmt.Errorf("export: create sheet: %w", err)
	}
	if err := writeHeader(f, timeOffSheet, timeOffHeader, headerStyle); err != nil {
		return err
	}
	for i, entry := range uniqueTimeOff(view) {
		values := []any{entry.TechnicianName, schedule.FormatDate(entry.StartDate), schedule.FormatDate(entry.EndDate), entry.Reason}
		if err := writeRow(f, timeOffSheet, i+2, values); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	for i, title := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("export: header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return fmt.Errorf("export: header %s: %w", cell, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("export: header cell: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("export: freeze header: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("export: row cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("export: row %d: %w", row, err)
	}
	return nil
}

// uniqueTimeOff lists each time-off window once, ordered by start date then
// technician name.
func uniqueTimeOff(view application.MonthView) []application.TimeOffEntry {
	seen := make(map[int64]bool)
	var entries []application.TimeOffEntry
	for _, day := range view.TimeOffByDate {
		for _, entry := range day {
			if seen[entry.ID] {
				continue
			}
			seen[entry.ID] = true
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].StartDate.Equal(entries[j].StartDate) {
			return entries[i].StartDate.Before(entries[j].StartDate)
		}
		if entries[i].TechnicianName != entries[j].TechnicianName {
			return entries[i].TechnicianName < entries[j].TechnicianName
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return ""
}
