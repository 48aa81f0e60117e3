package scenario

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"parking_api_testing/internal/model"
)

// Case sheet columns, left to right.
const (
	colSection = iota
	colMethod
	colPath
	colDescription
	colBody
	colAuth
	colCapture
)

// SheetHeaders is the header row expected (and written by WriteSheetTemplate).
var SheetHeaders = []string{"Section", "Method", "Path", "Description", "Body", "Auth", "Capture"}

// LoadSheet reads a plan from an Excel case sheet. Rows before headerRow are
// skipped, blank rows are ignored and a blank section inherits the previous one.
func LoadSheet(path, sheet string, headerRow int) (Plan, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("open case sheet: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return Plan{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if headerRow > len(rows) {
		return Plan{}, fmt.Errorf("no test cases found in sheet %q", sheet)
	}

	plan := Plan{Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	section := ""
	for i, row := range rows[headerRow:] {
		rowNum := headerRow + i + 1
		if isBlank(row) {
			continue
		}
		step, err := parseRow(row)
		if err != nil {
			return Plan{}, fmt.Errorf("sheet %q row %d: %w", sheet, rowNum, err)
		}
		if step.Section == "" {
			step.Section = section
		}
		section = step.Section
		plan.Steps = append(plan.Steps, step)
	}

	if len(plan.Steps) == 0 {
		return Plan{}, fmt.Errorf("no test cases found in sheet %q", sheet)
	}
	return plan, nil
}

func parseRow(row []string) (model.Step, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	step := model.Step{
		Section:     cell(colSection),
		Method:      strings.ToUpper(cell(colMethod)),
		Path:        cell(colPath),
		Description: cell(colDescription),
	}
	if step.Method == "" || step.Path == "" {
		return model.Step{}, fmt.Errorf("method and path are required")
	}
	if !strings.HasPrefix(step.Path, "/") {
		step.Path = "/" + step.Path
	}

	if raw := cell(colBody); raw != "" {
		var body any
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			return model.Step{}, fmt.Errorf("body is not valid JSON: %w", err)
		}
		step.Body = body
	}

	auth, ok := model.ParseSlot(cell(colAuth))
	if !ok {
		return model.Step{}, fmt.Errorf("unknown auth slot %q", cell(colAuth))
	}
	step.Auth = auth

	capture, ok := model.ParseSlot(cell(colCapture))
	if !ok {
		return model.Step{}, fmt.Errorf("unknown capture slot %q", cell(colCapture))
	}
	step.Capture = capture

	return step, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteSheetTemplate saves plan as a case sheet that LoadSheet can read back.
func WriteSheetTemplate(path, sheet string, plan Plan) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("remove default sheet: %w", err)
		}
	}

	for i, h := range SheetHeaders {
		cellName, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cellName, h)
	}

	for i, step := range plan.Steps {
		body := ""
		if step.Body != nil {
			b, err := json.Marshal(step.Body)
			if err != nil {
				return fmt.Errorf("encode body of step %d: %w", i+1, err)
			}
			body = string(b)
		}
		values := []string{step.Section, step.Method, step.Path, step.Description, body, string(step.Auth), string(step.Capture)}
		for col, v := range values {
			cellName, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cellName, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save case sheet: %w", err)
	}
	return nil
}
