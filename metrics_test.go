package authcore

import (
	"sync"
	"testing"
)

func TestMetricsConcurrentIncrement(t *testing.T) {
	m := NewMetrics(true)

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricRefreshSuccess)
			}
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	if got := snap.Counters[MetricRefreshSuccess]; got != workers*perWorker {
		t.Fatalf("counter = %d, want %d", got, workers*perWorker)
	}
}

func TestMetricsDisabled(t *testing.T) {
	m := NewMetrics(false)
	m.Inc(MetricLoginSuccess)

	if got := m.Snapshot().Counters[MetricLoginSuccess]; got != 0 {
		t.Fatalf("disabled metrics counted: %d", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	if len(m.Snapshot().Counters) != 0 {
		t.Fatal("nil metrics returned counters")
	}
}

func TestMetricsIgnoresOutOfRangeID(t *testing.T) {
	m := NewMetrics(true)
	m.Inc(metricIDCount + 10)
}
