package telemetry

import (
	"testing"
	"time"
)

func TestFrameMonitor_FPSComputation(t *testing.T) {
	m := NewFrameMonitor(time.Second)

	start := time.Unix(100, 0)
	frameTime := 16 * time.Millisecond

	// 60 frames across exactly one second after the baseline frame.
	var reported bool
	for i := 0; i <= 60; i++ {
		now := start.Add(time.Duration(i) * (time.Second / 60))
		if m.Record(now, frameTime) {
			reported = true
		}
	}
	if !reported {
		t.Fatal("expected a report after one second of frames")
	}

	got := m.Snapshot()
	if got.FPS != 60 {
		t.Errorf("fps = %v, want 60", got.FPS)
	}
	if got.FrameTimeAvg < 15.9 || got.FrameTimeAvg > 16.1 {
		t.Errorf("frame time avg = %v ms, want ~16", got.FrameTimeAvg)
	}
}

func TestFrameMonitor_ZeroElapsedGuard(t *testing.T) {
	m := NewFrameMonitor(0) // falls back to the default interval

	now := time.Unix(100, 0)
	m.Record(now, 0)
	// Same timestamp repeated: elapsed stays zero, no report, no NaN.
	for i := 0; i < 100; i++ {
		if m.Record(now, 0) {
			t.Fatal("report fired with zero elapsed time")
		}
	}
	got := m.Snapshot()
	if got.FPS != 0 || got.FrameTimeAvg != 0 {
		t.Errorf("expected zero metrics before first window, got %+v", got)
	}
}

func TestFrameMonitor_CountsFramesWithoutDurations(t *testing.T) {
	m := NewFrameMonitor(time.Second)

	start := time.Unix(0, 0)
	m.Record(start, 0)
	// 30 frames with no duration supplied must still be counted.
	for i := 1; i <= 29; i++ {
		m.Record(start.Add(time.Duration(i)*33*time.Millisecond), 0)
	}
	if !m.Record(start.Add(time.Second), 0) {
		t.Fatal("expected report at window close")
	}

	got := m.Snapshot()
	if got.FPS != 30 {
		t.Errorf("fps = %v, want 30", got.FPS)
	}
	if got.FrameTimeAvg != 0 {
		t.Errorf("frame time avg = %v with empty FIFO, want 0", got.FrameTimeAvg)
	}
}

func TestFrameMonitor_SampleFIFOCap(t *testing.T) {
	m := NewFrameMonitor(time.Hour) // window never closes during this test

	now := time.Unix(0, 0)
	for i := 0; i < 100; i++ {
		m.Record(now.Add(time.Duration(i)*time.Millisecond), time.Duration(i+1)*time.Millisecond)
	}

	samples := m.Samples()
	if len(samples) != FrameSampleCap {
		t.Fatalf("FIFO length = %d, want %d", len(samples), FrameSampleCap)
	}
	// Oldest evicted: the window holds the most recent 30 durations.
	if samples[0] != 71 {
		t.Errorf("oldest sample = %v ms, want 71", samples[0])
	}
	if samples[len(samples)-1] != 100 {
		t.Errorf("newest sample = %v ms, want 100", samples[len(samples)-1])
	}
}

func TestFrameMonitor_ToleratesLongGaps(t *testing.T) {
	m := NewFrameMonitor(time.Second)

	start := time.Unix(0, 0)
	m.Record(start, 16*time.Millisecond)

	// Tab hidden for an hour: the next frame closes a huge window.
	if !m.Record(start.Add(time.Hour), 16*time.Millisecond) {
		t.Fatal("expected report after long gap")
	}
	got := m.Snapshot()
	if got.FPS != 0 {
		t.Errorf("fps = %v after hour-long gap, want 0", got.FPS)
	}

	// Counting resumes cleanly afterwards.
	base := start.Add(time.Hour)
	for i := 1; i <= 59; i++ {
		m.Record(base.Add(time.Duration(i)*(time.Second/60)), 16*time.Millisecond)
	}
	if !m.Record(base.Add(time.Second), 16*time.Millisecond) {
		t.Fatal("expected report after recovery window")
	}
	if got := m.Snapshot(); got.FPS < 59 || got.FPS > 61 {
		t.Errorf("fps = %v after recovery, want ~60", got.FPS)
	}
}

func TestFrameMonitor_ResetsBetweenWindows(t *testing.T) {
	m := NewFrameMonitor(time.Second)

	start := time.Unix(0, 0)
	m.Record(start, 0)
	// Fast first window: 100 frames in one second.
	for i := 1; i <= 99; i++ {
		m.Record(start.Add(time.Duration(i)*10*time.Millisecond), 0)
	}
	m.Record(start.Add(time.Second), 0)
	if got := m.Snapshot().FPS; got != 100 {
		t.Fatalf("first window fps = %v, want 100", got)
	}

	// Slow second window: 10 frames. The counter must have reset.
	base := start.Add(time.Second)
	for i := 1; i <= 9; i++ {
		m.Record(base.Add(time.Duration(i)*100*time.Millisecond), 0)
	}
	m.Record(base.Add(time.Second), 0)
	if got := m.Snapshot().FPS; got != 10 {
		t.Errorf("second window fps = %v, want 10", got)
	}
	if m.Reports() != 2 {
		t.Errorf("reports = %d, want 2", m.Reports())
	}
}
