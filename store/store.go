// Package store persists test outcomes as a single JSON-array snapshot file
// shared by many concurrent, uncoordinated writers. There is no lock server;
// correctness relies on read-whole/write-whole commits through an atomic
// rename, with optimistic retries that re-read fresh state after a collision.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/skuqa/sku-acceptor/types"
)

// Policy is the explicit retry policy for optimistic commits.
type Policy struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// RandomizationFactor bounds the jitter applied to each interval.
	RandomizationFactor float64
}

// DefaultPolicy bounds a submit to five attempts with exponential backoff
// plus random jitter between them.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:         5,
		InitialInterval:     50 * time.Millisecond,
		MaxInterval:         time.Second,
		RandomizationFactor: 0.5,
	}
}

// Store is a durable record set keyed by catalog index.
type Store struct {
	path   string
	policy Policy
	log    zerolog.Logger
}

// New creates a store backed by the snapshot file at path.
func New(path string, policy Policy, log zerolog.Logger) *Store {
	return &Store{path: path, policy: policy, log: log}
}

// Path returns the canonical snapshot location.
func (s *Store) Path() string {
	return s.path
}

// Reset removes any snapshot left over from an earlier run. Records for the
// new run must all come from this run's executors.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to reset store %s: %w", s.path, err)
	}
	return nil
}

// errCollision marks a commit that lost the race against another writer.
var errCollision = errors.New("snapshot changed during commit")

// Submit persists or replaces the record for index. Writers for different
// indices never clobber each other: every retry re-reads the latest
// committed snapshot before applying its upsert. Exhausting the retry
// budget is logged and reported, never fatal to the caller.
func (s *Store) Submit(index int, outcome types.TestOutcome) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.policy.InitialInterval
	bo.MaxInterval = s.policy.MaxInterval
	bo.RandomizationFactor = s.policy.RandomizationFactor

	attempts := uint64(1)
	if s.policy.MaxAttempts > 0 {
		attempts = s.policy.MaxAttempts
	}

	err := backoff.Retry(func() error {
		return s.tryCommit(index, outcome)
	}, backoff.WithMaxRetries(bo, attempts-1))
	if err != nil {
		s.log.Error().Err(err).Int("index", index).
			Uint64("attempts", attempts).
			Msg("giving up on result submit; index falls back to historical data")
		return fmt.Errorf("failed to submit record for index %d: %w", index, err)
	}
	return nil
}

// LoadAll returns every currently committed record, ordered by index.
// A missing or unreadable snapshot reads as empty.
func (s *Store) LoadAll() ([]types.StoreRecord, error) {
	records, _, err := s.read()
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Index < records[j].Index })
	return records, nil
}

// snapshotVersion identifies the committed snapshot generation. The zero
// value stands for "no snapshot".
type snapshotVersion struct {
	modTime time.Time
	size    int64
}

func (s *Store) tryCommit(index int, outcome types.TestOutcome) error {
	records, version, err := s.read()
	if err != nil {
		return err
	}

	upserted := false
	for i := range records {
		if records[i].Index == index {
			records[i].Outcome = outcome
			upserted = true
			break
		}
	}
	if !upserted {
		records = append(records, types.StoreRecord{Index: index, Outcome: outcome})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to marshal snapshot: %w", err))
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create store directory: %w", err))
	}
	tmp, err := os.CreateTemp(dir, ".results-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp snapshot: %w", err)
	}

	// Another writer may have committed since we read. Re-check the
	// generation right before the rename so a late writer never reverts an
	// already-committed entry for a different index.
	if s.version() != version {
		os.Remove(tmpName)
		return errCollision
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// read returns the committed records together with the snapshot version
// they were read from. Corrupt snapshots read as empty: losing unreadable
// data is the documented tradeoff, crashing a worker is not.
func (s *Store) read() ([]types.StoreRecord, snapshotVersion, error) {
	version := s.version()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, version, nil
	}
	if err != nil {
		return nil, version, fmt.Errorf("failed to read snapshot %s: %w", s.path, err)
	}

	var records []types.StoreRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).
			Msg("snapshot is unreadable, treating as empty (interrupted write?)")
		return nil, version, nil
	}
	return records, version, nil
}

func (s *Store) version() snapshotVersion {
	info, err := os.Stat(s.path)
	if err != nil {
		return snapshotVersion{}
	}
	return snapshotVersion{modTime: info.ModTime(), size: info.Size()}
}
