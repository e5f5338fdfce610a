// Package telemetry aggregates per-frame timing into fps reports, per-phase
// breakdowns, and windowed statistics for the HUD and CSV output.
package telemetry

import (
	"log/slog"
	"math"
	"time"
)

// ReportInterval is the wall-clock window for fps reports.
const ReportInterval = time.Second

// FrameSampleCap bounds the frame-duration FIFO.
const FrameSampleCap = 30

// Metrics is the externally readable summary, recomputed once per report
// interval. Read-only to consumers.
type Metrics struct {
	FPS          float64
	FrameTimeAvg float64 // milliseconds
}

// LogValue implements slog.LogValuer.
func (m Metrics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("fps", m.FPS),
		slog.Float64("frame_ms_avg", m.FrameTimeAvg),
	)
}

// FrameMonitor accumulates per-frame samples into a rolling window and
// derives fps and average frame time once per report interval.
//
// Time is always supplied by the caller's frame loop, never sampled
// internally, so the monitor tolerates arbitrarily long gaps (hidden tab,
// stopped loop) without corrupting its computation. Recording is
// unconditional: there is no liveness gate that could silently drop frames.
type FrameMonitor struct {
	interval time.Duration

	frameCount  int
	windowStart time.Time

	samples   []float64 // frame durations in ms, oldest first
	metrics   Metrics
	reportSeq int64
}

// NewFrameMonitor creates a monitor. A non-positive interval falls back to
// ReportInterval.
func NewFrameMonitor(interval time.Duration) *FrameMonitor {
	if interval <= 0 {
		interval = ReportInterval
	}
	return &FrameMonitor{
		interval: interval,
		samples:  make([]float64, 0, FrameSampleCap),
	}
}

// Record registers one rendered frame at the given timestamp. A positive
// frameTime is appended to the duration FIFO (oldest evicted past the cap);
// zero or negative means the caller had no duration for this frame, which
// still counts it.
//
// Returns true when a report window closed and Snapshot changed. No
// allocation occurs on this path after the FIFO warms up.
func (m *FrameMonitor) Record(now time.Time, frameTime time.Duration) bool {
	m.frameCount++

	if frameTime > 0 {
		if len(m.samples) == FrameSampleCap {
			copy(m.samples, m.samples[1:])
			m.samples = m.samples[:FrameSampleCap-1]
		}
		m.samples = append(m.samples, float64(frameTime)/float64(time.Millisecond))
	}

	if m.windowStart.IsZero() {
		// First call establishes the window baseline; the counted frame
		// belongs to no window yet.
		m.windowStart = now
		m.frameCount = 0
		return false
	}

	elapsed := now.Sub(m.windowStart)
	if elapsed < m.interval {
		return false
	}

	elapsedMs := float64(elapsed) / float64(time.Millisecond)
	var fps float64
	if elapsedMs > 0 {
		fps = math.Round(float64(m.frameCount) * 1000 / elapsedMs)
	}

	m.metrics = Metrics{
		FPS:          fps,
		FrameTimeAvg: meanOf(m.samples),
	}
	m.reportSeq++
	m.frameCount = 0
	m.windowStart = now
	return true
}

// Snapshot returns the latest report. Zero-valued until the first window
// closes.
func (m *FrameMonitor) Snapshot() Metrics {
	return m.metrics
}

// Reports returns how many windows have closed. Useful for cadence checks
// in tests and the bench tool.
func (m *FrameMonitor) Reports() int64 {
	return m.reportSeq
}

// Samples exposes the current duration FIFO (ms) for windowed statistics.
// The slice is owned by the monitor; callers must not retain it.
func (m *FrameMonitor) Samples() []float64 {
	return m.samples
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
