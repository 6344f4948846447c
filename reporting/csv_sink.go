package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/skuqa/sku-acceptor/types"
)

// ScreenshotDelimiter joins screenshot references inside one CSV cell.
// Refs are relative file paths, which never contain a semicolon.
const ScreenshotDelimiter = ";"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Fixed columns framing the per-catalog expected-field columns.
var (
	csvLeadColumns  = []string{"index", "status", "query"}
	csvTrailColumns = []string{"found_count", "total_count", "match_position", "rank_bucket", "error_message", "screenshots"}
)

// WriteCSV writes the tabular export: UTF-8 with byte-order mark, RFC-4180
// quoting, fixed column order. The file doubles as the next run's
// previous-run input.
func WriteCSV(path string, data *ReportData) error {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)

	header := append([]string{}, csvLeadColumns...)
	header = append(header, data.FieldColumns...)
	header = append(header, csvTrailColumns...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range data.Rows {
		record := []string{
			strconv.Itoa(row.Index),
			string(row.Status),
			row.Query,
		}
		for _, f := range row.Fields {
			record = append(record, f.Value)
		}
		matchPosition := ""
		if row.MatchPosition > 0 {
			matchPosition = strconv.Itoa(row.MatchPosition)
		}
		record = append(record,
			strconv.Itoa(row.FoundCount),
			strconv.Itoa(row.TotalCount),
			matchPosition,
			row.RankBucket,
			row.ErrorMessage,
			strings.Join(row.Screenshots, ScreenshotDelimiter),
		)
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", row.Index, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write CSV export %s: %w", path, err)
	}
	return nil
}

// ParsePreviousExport re-parses a prior run's CSV export into outcomes
// keyed by index, for the previous-run merge tier. A missing file means
// "first run ever" and yields an empty map. Rows that fail to parse are
// dropped so they fall through to the default tier; one bad row never
// aborts the merge.
func ParsePreviousExport(path string) (map[int]types.TestOutcome, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[int]types.TestOutcome{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read previous export %s: %w", path, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil || len(rows) == 0 {
		// Treat an unparsable export like a missing one.
		return map[int]types.TestOutcome{}, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	if _, ok := col["index"]; !ok {
		return map[int]types.TestOutcome{}, nil
	}

	outcomes := make(map[int]types.TestOutcome, len(rows)-1)
	for _, row := range rows[1:] {
		index, err := strconv.Atoi(field(row, col, "index"))
		if err != nil || index < 0 {
			continue
		}

		outcome := types.TestOutcome{
			Status:       types.ParseStatus(field(row, col, "status")),
			RankBucket:   field(row, col, "rank_bucket"),
			ErrorMessage: field(row, col, "error_message"),
		}
		// Numeric fields round-tripped through text; re-parse them.
		if outcome.FoundCount, err = atoiOrZero(field(row, col, "found_count")); err != nil {
			continue
		}
		if outcome.TotalCount, err = atoiOrZero(field(row, col, "total_count")); err != nil {
			continue
		}
		if outcome.MatchPosition, err = atoiOrZero(field(row, col, "match_position")); err != nil {
			continue
		}
		if refs := field(row, col, "screenshots"); refs != "" {
			outcome.ScreenshotRefs = strings.Split(refs, ScreenshotDelimiter)
		}
		outcomes[index] = outcome
	}
	return outcomes, nil
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// atoiOrZero parses a numeric cell, treating the empty cell as zero.
func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
