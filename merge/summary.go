package merge

import (
	"math"

	"github.com/skuqa/sku-acceptor/types"
)

// Summarize derives suite-level counts and the pass/fail verdict from the
// merged matrix. This is the only place the suite verdict is decided;
// individual row status is never overridden here. The threshold boundary is
// inclusive: a pass rate exactly equal to the threshold passes.
func Summarize(rows []types.MergedRow, threshold float64) types.Summary {
	s := types.Summary{
		Total:     len(rows),
		Threshold: threshold,
	}
	for _, row := range rows {
		switch row.Outcome.Status {
		case types.StatusPass:
			s.Passed++
		case types.StatusFail:
			s.Failed++
		default:
			s.NotRun++
		}
	}

	if s.Total > 0 {
		s.PassRate = float64(s.Passed) / float64(s.Total) * 100
	}
	s.RequiredPasses = int(math.Ceil(threshold / 100 * float64(s.Total)))

	if s.PassRate >= threshold {
		s.SuiteStatus = types.SuitePassed
	} else {
		s.SuiteStatus = types.SuiteFailed
	}
	return s
}
