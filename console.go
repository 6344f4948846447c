package skuqa

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/skuqa/sku-acceptor/types"
)

// printResultsTable prints the merged result matrix to the console.
func (s *Service) printResultsTable(rows []types.MergedRow, summary types.Summary, duration time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("SKU Acceptance Results (%s)", formatDuration(duration)))

	t.AppendHeader(table.Row{
		"#", "Query", "Status", "Source", "Found", "Position", "Rank", "Error",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Query", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Found", Align: text.AlignRight},
		{Name: "Position", Align: text.AlignRight},
		{Name: "Error", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, row := range rows {
		t.AppendRow(table.Row{
			row.Spec.Index,
			row.Spec.Query,
			getResultString(row.Outcome.Status),
			tierLabel(row.Tier),
			formatFound(row.Outcome),
			formatPosition(row.Outcome.MatchPosition),
			row.Outcome.RankBucket,
			firstErrorLine(row.Outcome.ErrorMessage),
		})
	}

	if summary.SuiteStatus == types.SuitePassed {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d tests", summary.Total),
		fmt.Sprintf("%d passed / %d failed / %d not run", summary.Passed, summary.Failed, summary.NotRun),
		"",
		"",
		"",
		fmt.Sprintf("%.1f%% (need %.1f%%)", summary.PassRate, summary.Threshold),
		strings.ToUpper(string(summary.SuiteStatus)),
	})

	t.Render()
}

// getResultString returns a colored string representing the test result
func getResultString(status types.Status) string {
	switch status {
	case types.StatusPass:
		return "✓ pass"
	case types.StatusNotRun:
		return "- not run"
	default:
		return "✗ fail"
	}
}

func tierLabel(tier types.MergeTier) string {
	switch tier {
	case types.TierCurrentRun:
		return "current"
	case types.TierPreviousRun:
		return "previous"
	default:
		return "none"
	}
}

func formatFound(o types.TestOutcome) string {
	if o.TotalCount == 0 && o.FoundCount == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", o.FoundCount, o.TotalCount)
}

func formatPosition(position int) string {
	if position <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", position)
}

func firstErrorLine(msg string) string {
	msg = strings.TrimSpace(msg)
	if idx := strings.Index(msg, "\n"); idx != -1 {
		return msg[:idx]
	}
	if len(msg) > 80 {
		return msg[:70] + "..."
	}
	return msg
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
