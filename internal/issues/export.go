package issues

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportOptions configures the issue-list workbook.
type ExportOptions struct {
	SheetName      string `json:"sheet_name"`
	FreezeHeader   bool   `json:"freeze_header"`
	AutoFilter     bool   `json:"auto_filter"`
	HeaderBold     bool   `json:"header_bold"`
	HeaderFill     string `json:"header_fill"`
	IncludeRevoked bool   `json:"include_revoked"`
}

// DefaultExportOptions returns default workbook settings.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		SheetName:    "Issues",
		FreezeHeader: true,
		AutoFilter:   true,
		HeaderBold:   true,
		HeaderFill:   "4472C4",
	}
}

var exportColumns = []string{"Code", "Template", "Recipient", "Course", "Issued", "Emailed", "Revoked"}

// Exporter writes an issue list as an Excel workbook.
type Exporter struct {
	options ExportOptions
}

func NewExporter(options ExportOptions) *Exporter {
	return &Exporter{options: options}
}

// Write renders the workbook for the given issues to w. Revoked issues
// are skipped unless IncludeRevoked is set.
func (e *Exporter) Write(w io.Writer, issues []Issue) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := e.options.SheetName
	f.SetSheetName("Sheet1", sheet)

	if err := e.writeHeader(f, sheet); err != nil {
		return err
	}

	row := 2
	for _, issue := range issues {
		if issue.RevokedAt != nil && !e.options.IncludeRevoked {
			continue
		}
		values := []interface{}{
			issue.Code,
			issue.TemplateName,
			issue.UserID.String(),
			issue.CourseID.String(),
			issue.IssuedAt,
			nilableTime(issue.EmailedAt),
			nilableTime(issue.RevokedAt),
		}
		for col, val := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		row++
	}

	if e.options.AutoFilter && row > 2 {
		lastCol, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
		if err := f.AutoFilter(sheet, "A1:"+lastCol, nil); err != nil {
			return fmt.Errorf("set auto filter: %w", err)
		}
	}

	return f.Write(w)
}

func (e *Exporter) writeHeader(f *excelize.File, sheet string) error {
	styleID := 0
	if e.options.HeaderBold || e.options.HeaderFill != "" {
		style := &excelize.Style{
			Font: &excelize.Font{Bold: e.options.HeaderBold},
		}
		if e.options.HeaderFill != "" {
			style.Font.Color = "FFFFFF"
			style.Fill = excelize.Fill{
				Type:    "pattern",
				Pattern: 1,
				Color:   []string{e.options.HeaderFill},
			}
		}
		id, err := f.NewStyle(style)
		if err != nil {
			return fmt.Errorf("create header style: %w", err)
		}
		styleID = id
	}

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		if styleID > 0 {
			if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
				return err
			}
		}
	}

	if e.options.FreezeHeader {
		return f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
	return nil
}

func nilableTime(t *time.Time) interface{} {
	if t == nil {
		return ""
	}
	return *t
}
