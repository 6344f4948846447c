package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuqa/sku-acceptor/types"
)

func testPolicy() Policy {
	return Policy{
		MaxAttempts:         5,
		InitialInterval:     time.Millisecond,
		MaxInterval:         10 * time.Millisecond,
		RandomizationFactor: 0.5,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.json")
	return New(path, testPolicy(), zerolog.Nop())
}

func TestSubmitAndLoadAll(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Submit(1, types.TestOutcome{Status: types.StatusPass, FoundCount: 3, TotalCount: 3}))
	require.NoError(t, s.Submit(0, types.TestOutcome{Status: types.StatusFail, ErrorMessage: "no match"}))

	records, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	// LoadAll orders by index.
	assert.Equal(t, 0, records[0].Index)
	assert.Equal(t, types.StatusFail, records[0].Outcome.Status)
	assert.Equal(t, 1, records[1].Index)
	assert.Equal(t, types.StatusPass, records[1].Outcome.Status)
}

func TestSubmitReplacesSameIndex(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Submit(2, types.TestOutcome{Status: types.StatusFail}))
	require.NoError(t, s.Submit(2, types.TestOutcome{Status: types.StatusPass, MatchPosition: 1}))

	records, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.StatusPass, records[0].Outcome.Status)
	assert.Equal(t, 1, records[0].Outcome.MatchPosition)
}

func TestLoadAllMissingSnapshot(t *testing.T) {
	s := newTestStore(t)

	records, err := s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSubmitAgainstCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	s := New(path, testPolicy(), zerolog.Nop())

	// A corrupt snapshot reads as empty; the submit succeeds and its record
	// becomes the sole content. The old bytes are not recoverable.
	require.NoError(t, s.Submit(4, types.TestOutcome{Status: types.StatusPass}))

	records, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 4, records[0].Index)
}

func TestConcurrentWritersDisjointIndices(t *testing.T) {
	policy := testPolicy()
	policy.MaxAttempts = 20
	s := New(filepath.Join(t.TempDir(), "results.json"), policy, zerolog.Nop())

	const writers = 4
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			_ = s.Submit(index, types.TestOutcome{Status: types.StatusPass, MatchPosition: index + 1})
		}(i)
	}
	wg.Wait()

	records, err := s.LoadAll()
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, r := range records {
		seen[r.Index] = true
	}
	for i := 0; i < writers; i++ {
		assert.True(t, seen[i], "record for index %d should have been committed", i)
	}
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Submit(0, types.TestOutcome{Status: types.StatusPass}))
	require.NoError(t, s.Reset())

	records, err := s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, records)

	// Resetting an already-missing snapshot is fine.
	require.NoError(t, s.Reset())
}
