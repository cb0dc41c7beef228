package telemetry

import (
	"sync"
	"time"
)

// Sample is a Reading with its capture time, as plotted on the dashboard.
type Sample struct {
	Time    time.Time
	Reading Reading
}

// ChartBuffer is a bounded, time-ascending sliding window of samples.
// When full, the oldest sample is evicted first. It is cleared wholesale on
// mode switches and re-subscriptions.
type ChartBuffer struct {
	mu      sync.Mutex
	max     int
	samples []Sample
}

// DefaultChartCapacity bounds the dashboard chart history.
const DefaultChartCapacity = 500

// NewChartBuffer returns a buffer holding at most max samples. A max of zero
// or less falls back to DefaultChartCapacity.
func NewChartBuffer(max int) *ChartBuffer {
	if max <= 0 {
		max = DefaultChartCapacity
	}
	return &ChartBuffer{max: max}
}

// Push appends a sample, evicting the oldest when the buffer is full.
func (b *ChartBuffer) Push(s Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.samples) == b.max {
		copy(b.samples, b.samples[1:])
		b.samples = b.samples[:b.max-1]
	}
	b.samples = append(b.samples, s)
}

// Snapshot returns a copy of the buffered samples, oldest first.
func (b *ChartBuffer) Snapshot() []Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Sample, len(b.samples))
	copy(out, b.samples)
	return out
}

// Len reports the number of buffered samples.
func (b *ChartBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Clear drops all buffered samples.
func (b *ChartBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = b.samples[:0]
}
