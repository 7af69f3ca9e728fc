package result

import (
	"context"
	"fmt"
	"io"

	"github.com/RIKASH04/Resulyhub/internal/mark"
	"github.com/RIKASH04/Resulyhub/internal/subject"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Results"

// ExportClass writes an XLSX workbook with one row per student of the class:
// identity, every subject mark, then the summary. Students without a cached
// summary get one computed from their marks.
func (s *service) ExportClass(ctx context.Context, classID uuid.UUID, w io.Writer) error {
	className, err := NewRepository(s.db, s.dbMetrics).ClassName(ctx, classID)
	if err != nil {
		return err
	}

	subjects, err := subject.NewRepository(s.db, s.dbMetrics).ListByClass(ctx, classID)
	if err != nil {
		return err
	}

	students, err := s.ClassStudents(ctx, classID)
	if err != nil {
		return err
	}

	ids := make([]uuid.UUID, len(students))
	for i := range students {
		ids[i] = students[i].ID
	}
	marks, err := mark.NewRepository(s.db, s.dbMetrics).ListByStudents(ctx, ids)
	if err != nil {
		return err
	}
	byStudent := make(map[uuid.UUID][]mark.Mark, len(students))
	for _, m := range marks {
		byStudent[m.StudentID] = append(byStudent[m.StudentID], m)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: className + " results"}); err != nil {
		return fmt.Errorf("set doc props: %w", err)
	}

	header := []any{"Register Number", "Name", "Father Name"}
	for _, sub := range subjects {
		header = append(header, fmt.Sprintf("%s (%d)", sub.Name, sub.MaxMarks))
	}
	header = append(header, "Total", "Max Total", "Percentage", "Grade", "Status")
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, sr := range students {
		obtained := mark.BySubject(byStudent[sr.ID])

		summary := s.policy.Summarize(entries(subjects, obtained))
		if sr.Summary != nil {
			summary = sr.Summary.Summary()
		}

		fatherName := ""
		if sr.FatherName != nil {
			fatherName = *sr.FatherName
		}

		row := []any{sr.RegisterNumber, sr.Name, fatherName}
		for _, sub := range subjects {
			row = append(row, obtained[sub.ID])
		}
		row = append(row, summary.Total, summary.MaxTotal, summary.Percentage, summary.Grade, summary.Status)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	s.logger.InfoContext(ctx, "class results exported", "class_id", classID, "students", len(students))
	return nil
}
