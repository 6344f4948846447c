// Package merge reconciles the current run's store records, the previous
// run's re-parsed export, and the catalog into exactly one row per test.
package merge

import (
	"github.com/skuqa/sku-acceptor/types"
)

// Resolver is one priority tier of the merge. Tiers are evaluated in order
// per index; the first hit wins.
type Resolver interface {
	Tier() types.MergeTier
	Resolve(index int) (types.TestOutcome, bool)
}

// Merge combines the three tiers into one row per catalog entry, ordered by
// index. A fresh execution always supersedes history, even when the fresh
// outcome is NotRun or Fail and history recorded a Pass: the intent of a
// rerun is to refresh state for exactly the tests that ran.
func Merge(catalog []types.TestSpec, records []types.StoreRecord, previous map[int]types.TestOutcome) []types.MergedRow {
	resolvers := []Resolver{
		newCurrentRunResolver(records),
		newPreviousRunResolver(previous),
		defaultResolver{},
	}

	rows := make([]types.MergedRow, 0, len(catalog))
	for _, spec := range catalog {
		for _, r := range resolvers {
			outcome, ok := r.Resolve(spec.Index)
			if !ok {
				continue
			}
			rows = append(rows, types.MergedRow{Spec: spec, Outcome: outcome, Tier: r.Tier()})
			break
		}
	}
	return rows
}

type currentRunResolver struct {
	byIndex map[int]types.TestOutcome
}

func newCurrentRunResolver(records []types.StoreRecord) *currentRunResolver {
	byIndex := make(map[int]types.TestOutcome, len(records))
	for _, r := range records {
		// A later record for the same index supersedes an earlier one.
		byIndex[r.Index] = r.Outcome
	}
	return &currentRunResolver{byIndex: byIndex}
}

func (r *currentRunResolver) Tier() types.MergeTier { return types.TierCurrentRun }

func (r *currentRunResolver) Resolve(index int) (types.TestOutcome, bool) {
	outcome, ok := r.byIndex[index]
	return outcome, ok
}

type previousRunResolver struct {
	byIndex map[int]types.TestOutcome
}

func newPreviousRunResolver(previous map[int]types.TestOutcome) *previousRunResolver {
	if previous == nil {
		previous = map[int]types.TestOutcome{}
	}
	return &previousRunResolver{byIndex: previous}
}

func (r *previousRunResolver) Tier() types.MergeTier { return types.TierPreviousRun }

func (r *previousRunResolver) Resolve(index int) (types.TestOutcome, bool) {
	outcome, ok := r.byIndex[index]
	return outcome, ok
}

// defaultResolver synthesizes the NotRun row every index falls back to.
type defaultResolver struct{}

func (defaultResolver) Tier() types.MergeTier { return types.TierDefault }

func (defaultResolver) Resolve(int) (types.TestOutcome, bool) {
	return types.TestOutcome{Status: types.StatusNotRun}, true
}
