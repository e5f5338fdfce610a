package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseSpatialGrid)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseLinks)
		time.Sleep(200 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration")
	}
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}
	if _, ok := stats.PhaseAvg[PhaseSpatialGrid]; !ok {
		t.Error("expected spatial_grid phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseLinks]; !ok {
		t.Error("expected links phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseSimulate)
		pc.EndFrame()
	}

	stats := pc.Stats()
	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration after window filled")
	}
	if stats.MinFrameDuration > stats.MaxFrameDuration {
		t.Error("min frame duration exceeds max")
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()
	if stats.AvgFrameDuration != 0 {
		t.Error("expected zero average with no samples")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps with no samples")
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	pc := NewPerfCollector(4)
	for i := 0; i < 4; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseRender)
		time.Sleep(50 * time.Microsecond)
		pc.EndFrame()
	}

	rec := pc.Stats().ToCSV(7)
	if rec.WindowEnd != 7 {
		t.Errorf("window end = %d, want 7", rec.WindowEnd)
	}
	if rec.AvgFrameUS <= 0 {
		t.Error("expected positive average frame time in CSV record")
	}
	if rec.RenderPct <= 0 {
		t.Error("expected render phase percentage in CSV record")
	}
}
