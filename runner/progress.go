package runner

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skuqa/sku-acceptor/types"
)

// progressTracker reports periodic progress while workers run. Individual
// completions log at debug level to avoid spam; the ticker summarizes at
// info level.
type progressTracker struct {
	log    zerolog.Logger
	ticker *time.Ticker
	stopCh chan struct{}
	once   sync.Once

	mu        sync.Mutex
	total     int
	completed int
	running   map[int]time.Time
	started   time.Time
}

func newProgressTracker(log zerolog.Logger, total int, interval time.Duration) *progressTracker {
	if interval == 0 {
		interval = 30 * time.Second
	}
	t := &progressTracker{
		log:     log,
		ticker:  time.NewTicker(interval),
		stopCh:  make(chan struct{}),
		total:   total,
		running: make(map[int]time.Time),
		started: time.Now(),
	}
	go t.reporter()
	return t
}

func (t *progressTracker) StartTest(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running[index] = time.Now()
	t.log.Debug().Int("index", index).Int("running", len(t.running)).Msg("test started")
}

func (t *progressTracker) CompleteTest(index int, status types.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.running, index)
	t.completed++
	t.log.Debug().
		Int("index", index).
		Str("status", string(status)).
		Int("completed", t.completed).
		Int("total", t.total).
		Msg("test completed")
}

func (t *progressTracker) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.stopCh)
	})
}

func (t *progressTracker) reporter() {
	for {
		select {
		case <-t.ticker.C:
			t.report()
		case <-t.stopCh:
			return
		}
	}
}

func (t *progressTracker) report() {
	t.mu.Lock()
	defer t.mu.Unlock()

	var percent float64
	if t.total > 0 {
		percent = float64(t.completed) * 100.0 / float64(t.total)
	}
	t.log.Info().
		Int("completed", t.completed).
		Int("total", t.total).
		Str("percent", fmt.Sprintf("%.1f%%", percent)).
		Int("running", len(t.running)).
		Dur("elapsed", time.Since(t.started).Truncate(time.Second)).
		Msg("progress update")
}
