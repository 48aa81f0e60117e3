package reporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/xuri/excelize/v2"

	"parking_api_testing/internal/model"
)

const (
	// Excel
	sheetNameFormat    = "Results_%s"
	sheetTimeFormat    = "2006-01-02_15-04-05"
	defaultColumnWidth = 14
	wideColumnWidth    = 48

	// styles
	patternType    = "pattern"
	patternValue   = 1
	errorBgColor   = "FF5900"
	warningBgColor = "FFEB9C"

	slowRequestThreshold = 300 * time.Millisecond

	// text report
	reportTimeFormat = "2006-01-02 15:04:05"
	ruleWidth        = 50
)

var excelHeaders = []string{
	"#", "Section", "Method", "Endpoint", "Description", "Status Code",
	"Duration (ms)", "Timestamp", "Response", "Error", "CURL",
}

// wide columns: Response, Error, CURL
var wideColumns = map[string]bool{"I": true, "J": true, "K": true}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

type Stats struct {
	Total  int
	Errors int // transport failures
	Failed int // 4xx/5xx responses
}

func Summarize(records []model.Record) Stats {
	s := Stats{Total: len(records)}
	for _, r := range records {
		switch {
		case r.Error != "":
			s.Errors++
		case r.Failed():
			s.Failed++
		}
	}
	return s
}

type Reporter struct {
	out io.Writer
}

func New(out io.Writer) *Reporter {
	if out == nil {
		out = io.Discard
	}
	return &Reporter{out: out}
}

// PrintSummary prints the run totals to the console.
func (r *Reporter) PrintSummary(records []model.Record, skipped int, duration time.Duration) {
	s := Summarize(records)

	fmt.Fprintf(r.out, "\n%s\n", strings.Repeat("=", 60))
	fmt.Fprintln(r.out, titleStyle.Render(fmt.Sprintf("🎉 Testing Complete! Total tests: %d", s.Total)))
	fmt.Fprintf(r.out, "Elapsed: %.3fms\n", float64(duration.Microseconds())/1000)
	if skipped > 0 {
		fmt.Fprintf(r.out, "Skipped: %d\n", skipped)
	}
	failures := fmt.Sprintf("Errors: %d  4xx/5xx: %d", s.Errors, s.Failed)
	if s.Errors > 0 || s.Failed > 0 {
		failures = badStyle.Render(failures)
	}
	fmt.Fprintln(r.out, failures)
}

// WriteText writes the plain text report, replacing any existing file.
func (r *Reporter) WriteText(path string, records []model.Record, now time.Time) error {
	var b strings.Builder
	rule := strings.Repeat("-", ruleWidth)

	b.WriteString("PARKING API ENDPOINT TEST RESULTS\n")
	b.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	fmt.Fprintf(&b, "Test Date: %s\n", now.Format(reportTimeFormat))
	fmt.Fprintf(&b, "Total Endpoints Tested: %d\n\n", len(records))

	for i, rec := range records {
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, rec.Method, rec.Endpoint)
		fmt.Fprintf(&b, "   Description: %s\n", rec.Description)
		fmt.Fprintf(&b, "   Status Code: %s\n", rec.Status())
		if rec.Error != "" {
			fmt.Fprintf(&b, "   Error: %s\n", rec.Error)
		}
		fmt.Fprintf(&b, "   Response: %s\n", FormatResponse(rec.Response))
		b.WriteString(rule + "\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	fmt.Fprintf(r.out, "\n📄 Results saved to: %s\n", path)
	return nil
}

// FormatResponse renders a decoded body for the reports: JSON values compact, text as-is.
func FormatResponse(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// WriteExcel adds a timestamped result sheet to the workbook at path, creating the workbook if needed.
func (r *Reporter) WriteExcel(path string, records []model.Record, duration time.Duration, now time.Time) error {
	f, created, err := openOrCreate(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sheetName := fmt.Sprintf(sheetNameFormat, now.Format(sheetTimeFormat))
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if created {
		// drop the empty default sheet of a fresh workbook
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("remove default sheet: %w", err)
		}
	}

	for i := range excelHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(defaultColumnWidth)
		if wideColumns[col] {
			width = wideColumnWidth
		}
		f.SetColWidth(sheetName, col, col, width)
	}

	for i, header := range excelHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	errorStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: patternType, Pattern: patternValue, Color: []string{errorBgColor}},
	})
	if err != nil {
		return fmt.Errorf("create error style: %w", err)
	}
	warningStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: patternType, Pattern: patternValue, Color: []string{warningBgColor}},
	})
	if err != nil {
		return fmt.Errorf("create warning style: %w", err)
	}

	for i, rec := range records {
		writeRecord(f, sheetName, i+2, rec, errorStyle, warningStyle)
	}

	writeSummary(f, sheetName, len(records)+3, records, duration)

	if created {
		err = f.SaveAs(path)
	} else {
		err = f.Save()
	}
	if err != nil {
		return fmt.Errorf("save excel report: %w", err)
	}

	fmt.Fprintf(r.out, "📊 Excel report saved to sheet %s of %s\n", sheetName, path)
	return nil
}

func openOrCreate(path string) (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(path)
	if err == nil {
		return f, false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	return nil, false, fmt.Errorf("open excel report: %w", err)
}

func writeRecord(f *excelize.File, sheet string, row int, rec model.Record, errorStyle, warningStyle int) {
	cells := []any{
		rec.Number,
		rec.Section,
		rec.Method,
		rec.Endpoint,
		rec.Description,
		rec.Status(),
		float64(rec.Duration.Microseconds()) / 1000,
		rec.Timestamp.Format(reportTimeFormat),
		FormatResponse(rec.Response),
		rec.Error,
		rec.Curl,
	}

	style := 0
	if rec.Failed() {
		style = errorStyle
	} else if rec.Duration > slowRequestThreshold {
		style = warningStyle
	}

	for i, v := range cells {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, v)
		if style != 0 {
			f.SetCellStyle(sheet, cell, cell, style)
		}
	}
}

func writeSummary(f *excelize.File, sheet string, startRow int, records []model.Record, duration time.Duration) {
	s := Summarize(records)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", startRow), "Summary")
	f.SetCellValue(sheet, fmt.Sprintf("A%d", startRow+1), fmt.Sprintf("Total time: %.3fms", float64(duration.Microseconds())/1000))
	f.SetCellValue(sheet, fmt.Sprintf("A%d", startRow+2), fmt.Sprintf("Total requests: %d", s.Total))
	f.SetCellValue(sheet, fmt.Sprintf("A%d", startRow+3), fmt.Sprintf("Transport errors: %d", s.Errors))
	f.SetCellValue(sheet, fmt.Sprintf("A%d", startRow+4), fmt.Sprintf("4xx/5xx responses: %d", s.Failed))
}
