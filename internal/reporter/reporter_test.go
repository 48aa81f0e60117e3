package reporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"parking_api_testing/internal/model"
)

var testNow = time.Date(2025, 1, 20, 9, 30, 0, 0, time.UTC)

func sampleRecords() []model.Record {
	return []model.Record{
		{Number: 1, Section: "Auth", Method: "POST", Endpoint: "/login", Description: "Login user",
			StatusCode: 200, Response: map[string]any{"session_token": "abc"}, Timestamp: testNow, Duration: 12 * time.Millisecond},
		{Number: 2, Section: "Profile", Method: "GET", Endpoint: "/profile", Description: "Get profile without token",
			StatusCode: 401, Response: "Unauthorized", Timestamp: testNow, Duration: 400 * time.Millisecond},
		{Number: 3, Section: "Errors", Method: "GET", Endpoint: "/nonexistent", Description: "Non-existent endpoint",
			Error: "dial tcp 127.0.0.1:8000: connect: connection refused", Timestamp: testNow},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRecords())
	assert.Equal(t, Stats{Total: 3, Errors: 1, Failed: 1}, s)
}

func TestWriteText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "endpoint_test_results.txt")
	var out bytes.Buffer

	require.NoError(t, New(&out).WriteText(path, sampleRecords(), testNow))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasPrefix(text, "PARKING API ENDPOINT TEST RESULTS\n"+strings.Repeat("=", 50)+"\n"))
	assert.Contains(t, text, "Test Date: 2025-01-20 09:30:00\n")
	assert.Contains(t, text, "Total Endpoints Tested: 3\n\n")
	assert.Contains(t, text, "1. POST /login\n   Description: Login user\n   Status Code: 200\n   Response: {\"session_token\":\"abc\"}\n")
	assert.Contains(t, text, "2. GET /profile\n   Description: Get profile without token\n   Status Code: 401\n   Response: Unauthorized\n")
	assert.Contains(t, text, "3. GET /nonexistent\n   Description: Non-existent endpoint\n   Status Code: ERROR\n   Error: dial tcp")
	assert.Equal(t, 3, strings.Count(text, strings.Repeat("-", 50)+"\n"))
	assert.Contains(t, out.String(), "Results saved to: "+path)
}

func TestWriteText_BadPath(t *testing.T) {
	err := New(nil).WriteText(filepath.Join(t.TempDir(), "missing", "report.txt"), nil, testNow)
	assert.Error(t, err)
}

func TestFormatResponse(t *testing.T) {
	assert.Equal(t, "", FormatResponse(nil))
	assert.Equal(t, "plain", FormatResponse("plain"))
	assert.Equal(t, `{"a":[1,2]}`, FormatResponse(map[string]any{"a": []any{1.0, 2.0}}))
	assert.Equal(t, "true", FormatResponse(true))
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	New(&out).PrintSummary(sampleRecords(), 4, 1500*time.Millisecond)

	s := out.String()
	assert.Contains(t, s, "Testing Complete! Total tests: 3")
	assert.Contains(t, s, "Elapsed: 1500.000ms")
	assert.Contains(t, s, "Skipped: 4")
	assert.Contains(t, s, "Errors: 1  4xx/5xx: 1")
}

func TestWriteExcel_NewWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, New(nil).WriteExcel(path, sampleRecords(), time.Second, testNow))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Results_2025-01-20_09-30-00"}, f.GetSheetList())

	rows, err := f.GetRows("Results_2025-01-20_09-30-00")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, excelHeaders, rows[0])
	assert.Equal(t, []string{"1", "Auth", "POST", "/login", "Login user", "200"}, rows[1][:6])
	assert.Equal(t, "ERROR", rows[3][5])

	summary, err := f.GetCellValue("Results_2025-01-20_09-30-00", "A8")
	require.NoError(t, err)
	assert.Equal(t, "Total requests: 3", summary)
}

func TestWriteExcel_AppendsSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	rep := New(nil)

	require.NoError(t, rep.WriteExcel(path, sampleRecords(), time.Second, testNow))
	require.NoError(t, rep.WriteExcel(path, sampleRecords()[:1], time.Second, testNow.Add(time.Minute)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Results_2025-01-20_09-30-00", "Results_2025-01-20_09-31-00"}, f.GetSheetList())
}
