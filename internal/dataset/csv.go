package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/edupredict/studentperf/internal/types"
)

// csvColumns is the on-disk column order, matching the generated dataset.
var csvColumns = []string{
	"student_id",
	"semester",
	types.FieldAttendancePct,
	types.FieldInternalMarksAvg,
	types.FieldCulturalActivity,
	types.FieldClassParticipation,
	types.FieldSportsActivity,
	types.FieldCurricularActivity,
	types.FieldStudyHoursPerWeek,
	types.FieldPreviousGPA,
	types.FieldSocialSupportIndex,
	"final_result",
	"final_grade",
	"target_category",
}

// WriteCSV writes labeled rows to path with the canonical header.
func WriteCSV(path string, rows []LabeledRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write(csvColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range rows {
		rec := []string{
			row.StudentID,
			strconv.Itoa(row.Semester),
			formatField(row.Fields, types.FieldAttendancePct),
			formatField(row.Fields, types.FieldInternalMarksAvg),
			formatField(row.Fields, types.FieldCulturalActivity),
			formatField(row.Fields, types.FieldClassParticipation),
			formatField(row.Fields, types.FieldSportsActivity),
			formatField(row.Fields, types.FieldCurricularActivity),
			formatField(row.Fields, types.FieldStudyHoursPerWeek),
			formatField(row.Fields, types.FieldPreviousGPA),
			formatField(row.Fields, types.FieldSocialSupportIndex),
			row.FinalResult,
			strconv.FormatFloat(row.FinalGrade, 'f', -1, 64),
			row.TargetCategory,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func formatField(fields map[string]float64, name string) string {
	val, ok := fields[name]
	if !ok {
		return ""
	}
	return strconv.FormatFloat(val, 'f', -1, 64)
}

// ReadRecords parses student records from CSV. Header names select columns,
// so extra columns and arbitrary column order are fine. Empty cells become
// absent fields rather than zeros. Used for bulk prediction uploads.
func ReadRecords(r io.Reader) ([]types.StudentRecord, error) {
	rows, _, err := readRows(r)
	return rows, err
}

// ReadLabeled parses a training CSV: records plus the final_result label.
func ReadLabeled(r io.Reader) ([]LabeledRecord, error) {
	rows, raw, err := readRows(r)
	if err != nil {
		return nil, err
	}

	labeled := make([]LabeledRecord, len(rows))
	for i, rec := range rows {
		result, ok := raw[i]["final_result"]
		if !ok || result == "" {
			return nil, fmt.Errorf("row %d: missing final_result label", i+1)
		}
		labeled[i] = LabeledRecord{
			StudentRecord:  rec,
			FinalResult:    result,
			TargetCategory: raw[i]["target_category"],
		}
		if gradeStr := raw[i]["final_grade"]; gradeStr != "" {
			if grade, err := strconv.ParseFloat(gradeStr, 64); err == nil {
				labeled[i].FinalGrade = grade
			}
		}
	}
	return labeled, nil
}

// LoadLabeledFile is ReadLabeled over a file path.
func LoadLabeledFile(path string) ([]LabeledRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()
	return ReadLabeled(file)
}

func readRows(r io.Reader) ([]types.StudentRecord, []map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var records []types.StudentRecord
	var raws []map[string]string

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		raw := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				raw[col] = row[i]
			}
		}

		rec := types.StudentRecord{Fields: make(map[string]float64)}
		for col, cell := range raw {
			if cell == "" {
				continue
			}
			switch col {
			case "student_id":
				rec.StudentID = cell
			case "semester":
				sem, err := strconv.Atoi(cell)
				if err != nil {
					return nil, nil, fmt.Errorf("line %d: bad semester %q", line, cell)
				}
				rec.Semester = sem
			case "final_result", "final_grade", "target_category":
				// Labels are handled by ReadLabeled, not feature fields.
			default:
				val, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, nil, fmt.Errorf("line %d: column %q is not numeric: %q", line, col, cell)
				}
				rec.Fields[col] = val
			}
		}

		records = append(records, rec)
		raws = append(raws, raw)
	}
	return records, raws, nil
}
