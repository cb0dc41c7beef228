package telemetry

import (
	"testing"
	"time"
)

func TestChartBufferEvictsOldestFirst(t *testing.T) {
	b := NewChartBuffer(500)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 600; i++ {
		b.Push(Sample{Time: base.Add(time.Duration(i) * time.Second)})
	}
	if got := b.Len(); got != 500 {
		t.Fatalf("Len = %d; want 500", got)
	}
	samples := b.Snapshot()
	if got, want := samples[0].Time, base.Add(100*time.Second); !got.Equal(want) {
		t.Errorf("oldest sample time = %v; want %v", got, want)
	}
	if got, want := samples[len(samples)-1].Time, base.Add(599*time.Second); !got.Equal(want) {
		t.Errorf("newest sample time = %v; want %v", got, want)
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Time.Before(samples[i-1].Time) {
			t.Fatalf("samples not time-ascending at index %d", i)
		}
	}
}

func TestChartBufferNeverExceedsCapacity(t *testing.T) {
	b := NewChartBuffer(10)
	for i := 0; i < 100; i++ {
		b.Push(Sample{})
		if b.Len() > 10 {
			t.Fatalf("Len = %d after %d pushes; capacity is 10", b.Len(), i+1)
		}
	}
}

func TestChartBufferClear(t *testing.T) {
	b := NewChartBuffer(10)
	for i := 0; i < 5; i++ {
		b.Push(Sample{})
	}
	b.Clear()
	if got := b.Len(); got != 0 {
		t.Fatalf("Len after Clear = %d; want 0", got)
	}
	b.Push(Sample{})
	if got := b.Len(); got != 1 {
		t.Fatalf("Len after push post-Clear = %d; want 1", got)
	}
}

func TestChartBufferDefaultCapacity(t *testing.T) {
	b := NewChartBuffer(0)
	for i := 0; i < DefaultChartCapacity+1; i++ {
		b.Push(Sample{})
	}
	if got := b.Len(); got != DefaultChartCapacity {
		t.Fatalf("Len = %d; want %d", got, DefaultChartCapacity)
	}
}
