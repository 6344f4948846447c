package types

// Status is the outcome status of a single catalog entry.
type Status string

const (
	StatusPass   Status = "pass"
	StatusFail   Status = "fail"
	StatusNotRun Status = "not_run"
)

// ParseStatus maps a serialized status back to a Status, defaulting to
// StatusNotRun for anything unrecognized.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusPass, StatusFail:
		return Status(s)
	default:
		return StatusNotRun
	}
}

// ExpectedField is one expected attribute of the item a query should surface.
// Applicable is false when the catalog carries the not-applicable sentinel
// for this field; such fields are excluded from scoring.
type ExpectedField struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Applicable bool   `json:"applicable"`
}

// TestSpec is one entry of the test catalog. Index is the stable 0-based
// row position and the universal join key across the pipeline.
// Specs are immutable once loaded.
type TestSpec struct {
	Index          int             `json:"index"`
	Query          string          `json:"query"`
	ExpectedFields []ExpectedField `json:"expected_fields"`
}

// TestOutcome is the structured result of executing one test.
// MatchPosition is the 1-based rank of the expected item within the
// application's ordered result list; 0 means the item was not found.
type TestOutcome struct {
	Status         Status   `json:"status"`
	FoundCount     int      `json:"found_count"`
	TotalCount     int      `json:"total_count"`
	MatchPosition  int      `json:"match_position,omitempty"`
	RankBucket     string   `json:"rank_bucket,omitempty"`
	ErrorMessage   string   `json:"error_message,omitempty"`
	ScreenshotRefs []string `json:"screenshot_refs,omitempty"`
}

// StoreRecord tags a TestOutcome with its catalog index; it is the atomic
// unit persisted by the result store.
type StoreRecord struct {
	Index   int         `json:"index"`
	Outcome TestOutcome `json:"outcome"`
}

// MergeTier identifies which priority level resolved a merged row.
type MergeTier string

const (
	TierCurrentRun  MergeTier = "current_run"
	TierPreviousRun MergeTier = "previous_run"
	TierDefault     MergeTier = "default"
)

// MergedRow joins a TestSpec with its resolved TestOutcome. It is built
// exactly once per index after the executor barrier and never mutated.
type MergedRow struct {
	Spec    TestSpec
	Outcome TestOutcome
	Tier    MergeTier
}

// SuiteStatus is the suite-level verdict derived from the merged matrix.
type SuiteStatus string

const (
	SuitePassed SuiteStatus = "passed"
	SuiteFailed SuiteStatus = "failed"
)

// Summary aggregates the merged matrix into suite-level counts and verdict.
type Summary struct {
	Total          int
	Passed         int
	Failed         int
	NotRun         int
	PassRate       float64
	Threshold      float64
	RequiredPasses int
	SuiteStatus    SuiteStatus
}
