// Package reporting renders the merged matrix into the run artifacts: a
// tabular CSV export (also the next run's previous-run input), a
// self-contained static HTML document, and a console table.
package reporting

import (
	"time"

	"github.com/skuqa/sku-acceptor/types"
)

// FieldValue is one expected-field cell of a report row.
type FieldValue struct {
	Name       string
	Value      string
	Applicable bool
}

// Row is the renderer's view of one merged row.
type Row struct {
	Index         int
	Status        types.Status
	StatusText    string
	StatusClass   string
	FromPrevious  bool
	Query         string
	Fields        []FieldValue
	FoundCount    int
	TotalCount    int
	MatchPosition int
	RankBucket    string
	ErrorMessage  string
	Screenshots   []string
}

// ReportData carries everything any output format needs.
type ReportData struct {
	RunID        string
	GeneratedAt  time.Time
	Summary      types.Summary
	FieldColumns []string
	Rows         []Row
}

// BuildReport shapes merged rows and their summary for rendering. The same
// ReportData feeds the CSV sink, the HTML sink and the console table so all
// artifacts agree.
func BuildReport(rows []types.MergedRow, summary types.Summary, runID string, fieldColumns []string) *ReportData {
	data := &ReportData{
		RunID:        runID,
		GeneratedAt:  time.Now(),
		Summary:      summary,
		FieldColumns: fieldColumns,
		Rows:         make([]Row, 0, len(rows)),
	}

	for _, row := range rows {
		r := Row{
			Index:         row.Spec.Index,
			Status:        row.Outcome.Status,
			StatusText:    statusText(row.Outcome.Status),
			StatusClass:   statusClass(row.Outcome.Status),
			FromPrevious:  row.Tier == types.TierPreviousRun,
			Query:         row.Spec.Query,
			FoundCount:    row.Outcome.FoundCount,
			TotalCount:    row.Outcome.TotalCount,
			MatchPosition: row.Outcome.MatchPosition,
			RankBucket:    row.Outcome.RankBucket,
			ErrorMessage:  row.Outcome.ErrorMessage,
			Screenshots:   row.Outcome.ScreenshotRefs,
		}
		for _, f := range row.Spec.ExpectedFields {
			r.Fields = append(r.Fields, FieldValue{Name: f.Name, Value: f.Value, Applicable: f.Applicable})
		}
		data.Rows = append(data.Rows, r)
	}
	return data
}

func statusText(s types.Status) string {
	switch s {
	case types.StatusPass:
		return "PASS"
	case types.StatusFail:
		return "FAIL"
	default:
		return "NOT RUN"
	}
}

func statusClass(s types.Status) string {
	switch s {
	case types.StatusPass:
		return "pass"
	case types.StatusFail:
		return "fail"
	default:
		return "notrun"
	}
}
