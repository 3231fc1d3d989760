package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestDisabledNoIncrement(t *testing.T) {
	m := New(Config{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestEnabledIncrement(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestConcurrentIncrementSafe(t *testing.T) {
	m := New(Config{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricRefreshSuccess)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRefreshSuccess); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestHistogramBuckets(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})

	observations := []struct {
		d      time.Duration
		bucket int
	}{
		{time.Millisecond, 0},
		{5 * time.Millisecond, 0},
		{8 * time.Millisecond, 1},
		{20 * time.Millisecond, 2},
		{40 * time.Millisecond, 3},
		{90 * time.Millisecond, 4},
		{200 * time.Millisecond, 5},
		{400 * time.Millisecond, 6},
		{2 * time.Second, 7},
	}

	for _, obs := range observations {
		m.Observe(MetricVerifyLatency, obs.d)
	}

	snap := m.Snapshot()
	buckets, ok := snap.Histograms[MetricVerifyLatency]
	if !ok {
		t.Fatal("expected latency histogram in snapshot")
	}

	want := make([]uint64, histBucketCount)
	for _, obs := range observations {
		want[obs.bucket]++
	}
	for i := range want {
		if buckets[i] != want[i] {
			t.Fatalf("bucket %d = %d, want %d", i, buckets[i], want[i])
		}
	}
}

func TestObserveIgnoredWhenLatencyDisabled(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Observe(MetricVerifyLatency, time.Millisecond)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricVerifyLatency]; ok {
		t.Fatal("expected no histogram when latency is disabled")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Inc(MetricVerifySuccess)

	snap := m.Snapshot()
	snap.Counters[MetricVerifySuccess] = 999

	if got := m.Value(MetricVerifySuccess); got != 1 {
		t.Fatalf("snapshot mutation leaked into live metrics: %d", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricVerifyLatency, time.Millisecond)

	if m.Enabled() || m.LatencyEnabled() {
		t.Fatal("expected nil metrics to report disabled")
	}
	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatal("expected empty snapshot from nil metrics")
	}
}
