package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBatchCollector_Percentile(t *testing.T) {
	tests := []struct {
		name      string
		durations []time.Duration
		q         float64
		want      time.Duration
	}{
		{"empty", nil, 0.95, 0},
		{"single", []time.Duration{50 * time.Millisecond}, 0.95, 50 * time.Millisecond},
		{"two values", []time.Duration{80 * time.Millisecond, 40 * time.Millisecond}, 0.95, 80 * time.Millisecond},
		{"median of two", []time.Duration{80 * time.Millisecond, 40 * time.Millisecond}, 0.5, 40 * time.Millisecond},
		{"zero q", []time.Duration{time.Second}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewBatchCollector()
			for _, d := range tt.durations {
				c.JobStarted()
				c.JobCompleted(d)
			}
			if got := c.Percentile(tt.q); got != tt.want {
				t.Errorf("Percentile(%v) = %v, want %v", tt.q, got, tt.want)
			}
		})
	}
}

func TestBatchCollector_PercentileOfHundred(t *testing.T) {
	c := NewBatchCollector()
	for i := 100; i >= 1; i-- {
		c.JobStarted()
		c.JobCompleted(time.Duration(i) * time.Millisecond)
	}

	if got := c.Percentile(0.95); got != 95*time.Millisecond {
		t.Errorf("Percentile(0.95) = %v, want 95ms", got)
	}
	if got := c.Percentile(1); got != 100*time.Millisecond {
		t.Errorf("Percentile(1) = %v, want 100ms", got)
	}
}

func TestBatchCollector_Metrics(t *testing.T) {
	success := testutil.ToFloat64(BatchJobsTotal.WithLabelValues("success"))
	failed := testutil.ToFloat64(BatchJobsTotal.WithLabelValues("error"))
	skipped := testutil.ToFloat64(BatchJobsTotal.WithLabelValues("skipped"))

	c := NewBatchCollector()
	c.JobStarted()
	if got := testutil.ToFloat64(BatchActiveJobs); got != 1 {
		t.Errorf("BatchActiveJobs = %v, want 1", got)
	}
	c.JobCompleted(40 * time.Millisecond)
	c.JobStarted()
	c.JobFailed(80 * time.Millisecond)
	c.JobSkipped()

	if got := testutil.ToFloat64(BatchActiveJobs); got != 0 {
		t.Errorf("BatchActiveJobs = %v, want 0", got)
	}
	deltas := map[string]float64{
		"success": testutil.ToFloat64(BatchJobsTotal.WithLabelValues("success")) - success,
		"error":   testutil.ToFloat64(BatchJobsTotal.WithLabelValues("error")) - failed,
		"skipped": testutil.ToFloat64(BatchJobsTotal.WithLabelValues("skipped")) - skipped,
	}
	for status, got := range deltas {
		if got != 1 {
			t.Errorf("%s delta = %v, want 1", status, got)
		}
	}
	if got := c.Percentile(0.95); got != 80*time.Millisecond {
		t.Errorf("Percentile(0.95) = %v, want 80ms", got)
	}
}

func TestBatchCollector_Concurrent(t *testing.T) {
	c := NewBatchCollector()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.JobStarted()
			c.JobCompleted(time.Duration(i+1) * time.Millisecond)
		}()
	}
	wg.Wait()

	if got := c.Percentile(1); got != 50*time.Millisecond {
		t.Errorf("Percentile(1) = %v, want 50ms", got)
	}
}

func TestRecordTransform(t *testing.T) {
	before := testutil.ToFloat64(TransformsTotal.WithLabelValues("success"))
	RecordTransform("success", 0.01)
	if got := testutil.ToFloat64(TransformsTotal.WithLabelValues("success")) - before; got != 1 {
		t.Errorf("TransformsTotal delta = %v, want 1", got)
	}
}

func TestRecordSourceLoad(t *testing.T) {
	before := testutil.ToFloat64(SourceLoadsTotal.WithLabelValues("file", "error"))
	RecordSourceLoad("file", "error", 0)
	if got := testutil.ToFloat64(SourceLoadsTotal.WithLabelValues("file", "error")) - before; got != 1 {
		t.Errorf("SourceLoadsTotal delta = %v, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	RecordTransform("success", 0.01)

	path := filepath.Join(t.TempDir(), "imgedit.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "imgedit_transforms_total") {
		t.Error("textfile does not contain imgedit_transforms_total")
	}
}
