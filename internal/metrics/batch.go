package metrics

import (
	"math"
	"slices"
	"sync"
	"time"
)

// BatchCollector records one batch run: it feeds the process wide batch
// metrics and keeps the run's own entry durations for percentile reporting.
type BatchCollector struct {
	mu        sync.Mutex
	durations []time.Duration
}

func NewBatchCollector() *BatchCollector {
	return &BatchCollector{}
}

func (c *BatchCollector) JobStarted() {
	BatchActiveJobs.Inc()
}

func (c *BatchCollector) JobCompleted(d time.Duration) {
	c.finish("success", d)
}

func (c *BatchCollector) JobFailed(d time.Duration) {
	c.finish("error", d)
}

// JobSkipped counts an entry that never started.
func (c *BatchCollector) JobSkipped() {
	RecordBatchJob("skipped")
}

func (c *BatchCollector) finish(status string, d time.Duration) {
	BatchActiveJobs.Dec()
	RecordBatchJob(status)

	c.mu.Lock()
	c.durations = append(c.durations, d)
	c.mu.Unlock()
}

// Percentile returns the nearest-rank q-th percentile (0 < q <= 1) of the
// finished entries' durations, or 0 before any entry finished.
func (c *BatchCollector) Percentile(q float64) time.Duration {
	c.mu.Lock()
	sorted := slices.Clone(c.durations)
	c.mu.Unlock()

	if len(sorted) == 0 || q <= 0 {
		return 0
	}
	slices.Sort(sorted)

	rank := int(math.Ceil(q*float64(len(sorted)))) - 1
	return sorted[min(max(rank, 0), len(sorted)-1)]
}
