package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/case-workflow/internal/domain"
)

const (
	SheetCases = "Cases"
	SheetNotes = "Notes"
)

var caseHeaders = []string{
	"ID", "Reported", "Victim", "ID number", "Phone", "Violence type", "Description",
	"Status", "Office", "Urgency", "Professional", "Attachment", "Dossier", "Analysis",
	"Resolution", "Denial", "Report 1", "Report 2", "Updated",
}

var noteHeaders = []string{"ID", "Office", "Created", "Content"}

const dateLayout = "2006-01-02 15:04"

// Workbook builds the spreadsheet export of cases and management notes.
func Workbook(cases []domain.Case, notes []domain.ManagementNote) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetCases); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetNotes); err != nil {
		return nil, fmt.Errorf("create notes sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(cases))
	for i := range cases {
		c := &cases[i]
		office := c.AssignedOffice
		if office == "" {
			office = "Pending"
		}
		rows = append(rows, []any{
			c.ID,
			c.ReportedAt.Format(dateLayout),
			c.Victim.Name,
			c.Victim.IDNumber,
			c.Victim.Phone,
			c.ViolenceType,
			c.SummaryDescription(),
			string(c.Status),
			office,
			string(c.Urgency),
			c.Professional,
			c.Documents.OriginalAttachment,
			c.Documents.Dossier,
			c.Documents.Analysis,
			c.Documents.Resolution,
			c.Documents.Denial,
			c.ReportSlots[0],
			c.ReportSlots[1],
			c.UpdatedAt.Format(dateLayout),
		})
	}
	if err := writeSheet(f, SheetCases, caseHeaders, rows, headerStyle); err != nil {
		return nil, err
	}

	rows = rows[:0]
	for _, n := range notes {
		rows = append(rows, []any{n.ID, n.OfficeLabel, n.CreatedAt.Format(dateLayout), n.Content})
	}
	if err := writeSheet(f, SheetNotes, noteHeaders, rows, headerStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any, headerStyle int) error {
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
