package reporting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuqa/sku-acceptor/types"
)

func sampleReport() *ReportData {
	rows := []types.MergedRow{
		{
			Spec: types.TestSpec{
				Index: 0,
				Query: `query with "quotes", commas`,
				ExpectedFields: []types.ExpectedField{
					{Name: "sku_name", Value: "FX-1", Applicable: true},
					{Name: "price", Value: "N/A"},
				},
			},
			Outcome: types.TestOutcome{
				Status:         types.StatusPass,
				FoundCount:     1,
				TotalCount:     1,
				MatchPosition:  3,
				RankBucket:     "Top 1-5",
				ScreenshotRefs: []string{"screenshots/000_results.png", "screenshots/000_detail.png"},
			},
			Tier: types.TierCurrentRun,
		},
		{
			Spec: types.TestSpec{
				Index: 1,
				Query: "line\nbreak",
				ExpectedFields: []types.ExpectedField{
					{Name: "sku_name", Value: "KX-SDR", Applicable: true},
					{Name: "price", Value: "1200", Applicable: true},
				},
			},
			Outcome: types.TestOutcome{
				Status:       types.StatusFail,
				TotalCount:   2,
				RankBucket:   "Not Found",
				ErrorMessage: "expected item not in results",
			},
			Tier: types.TierCurrentRun,
		},
		{
			Spec:    types.TestSpec{Index: 2, Query: "untouched"},
			Outcome: types.TestOutcome{Status: types.StatusNotRun},
			Tier:    types.TierDefault,
		},
	}
	summary := types.Summary{Total: 3, Passed: 1, Failed: 1, NotRun: 1}
	return BuildReport(rows, summary, "run-1", []string{"sku_name", "price"})
}

func TestWriteCSVAndParseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, WriteCSV(path, sampleReport()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\xEF\xBB\xBF"), "export should start with a UTF-8 BOM")

	outcomes, err := ParsePreviousExport(path)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, types.StatusPass, outcomes[0].Status)
	assert.Equal(t, 3, outcomes[0].MatchPosition)
	assert.Equal(t, "Top 1-5", outcomes[0].RankBucket)
	assert.Equal(t, []string{"screenshots/000_results.png", "screenshots/000_detail.png"}, outcomes[0].ScreenshotRefs)

	assert.Equal(t, types.StatusFail, outcomes[1].Status)
	assert.Equal(t, 0, outcomes[1].MatchPosition)
	assert.Equal(t, 2, outcomes[1].TotalCount)
	assert.Equal(t, "expected item not in results", outcomes[1].ErrorMessage)

	assert.Equal(t, types.StatusNotRun, outcomes[2].Status)
}

func TestWriteCSVHeaderOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, WriteCSV(path, sampleReport()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	header := strings.SplitN(strings.TrimPrefix(string(raw), "\xEF\xBB\xBF"), "\n", 2)[0]
	assert.Equal(t,
		"index,status,query,sku_name,price,found_count,total_count,match_position,rank_bucket,error_message,screenshots",
		strings.TrimRight(header, "\r"))
}

func TestParsePreviousExportMissingFile(t *testing.T) {
	outcomes, err := ParsePreviousExport(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestParsePreviousExportMalformedRowsDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	content := "index,status,query,found_count,total_count,match_position,rank_bucket,error_message,screenshots\n" +
		"0,pass,ok,1,1,1,Top 1-5,,\n" +
		"oops,pass,bad index,1,1,1,,,\n" +
		"2,pass,bad count,NaN,1,1,,,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	outcomes, err := ParsePreviousExport(path)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, types.StatusPass, outcomes[0].Status)
}

func TestParsePreviousExportGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte("\"unterminated"), 0644))

	outcomes, err := ParsePreviousExport(path)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}
