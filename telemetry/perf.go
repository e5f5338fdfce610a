package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the per-frame pipeline.
const (
	PhaseSimulate    = "simulate"
	PhaseSpatialGrid = "spatial_grid"
	PhaseLinks       = "links"
	PhaseEffects     = "effects"
	PhaseRender      = "render"
	PhaseTelemetry   = "telemetry"
)

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameDuration time.Duration
	Phases        map[string]time.Duration
}

// PerfCollector tracks per-phase timing over a rolling window of frames.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a collector averaging over windowSize frames
// (e.g. 60 for one second at 60 fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase, closing the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndFrame finishes the current frame and records the sample.
func (p *PerfCollector) EndFrame() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		FrameDuration: now.Sub(p.frameStart),
		Phases:        p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated timing over the window.
type PerfStats struct {
	AvgFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration

	// Phase breakdown: average duration and percentage of frame time.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var total time.Duration
	var minDur, maxDur time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.FrameDuration

		if i == 0 || s.FrameDuration < minDur {
			minDur = s.FrameDuration
		}
		if s.FrameDuration > maxDur {
			maxDur = s.FrameDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	return PerfStats{
		AvgFrameDuration: avg,
		MinFrameDuration: minDur,
		MaxFrameDuration: maxDur,
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrameDuration.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrameDuration.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrameDuration.Microseconds()),
	}
	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd      int64   `csv:"window_end"`
	AvgFrameUS     int64   `csv:"avg_frame_us"`
	MinFrameUS     int64   `csv:"min_frame_us"`
	MaxFrameUS     int64   `csv:"max_frame_us"`
	SimulatePct    float64 `csv:"simulate_pct"`
	SpatialGridPct float64 `csv:"spatial_grid_pct"`
	LinksPct       float64 `csv:"links_pct"`
	EffectsPct     float64 `csv:"effects_pct"`
	RenderPct      float64 `csv:"render_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgFrameUS:     s.AvgFrameDuration.Microseconds(),
		MinFrameUS:     s.MinFrameDuration.Microseconds(),
		MaxFrameUS:     s.MaxFrameDuration.Microseconds(),
		SimulatePct:    s.PhasePct[PhaseSimulate],
		SpatialGridPct: s.PhasePct[PhaseSpatialGrid],
		LinksPct:       s.PhasePct[PhaseLinks],
		EffectsPct:     s.PhasePct[PhaseEffects],
		RenderPct:      s.PhasePct[PhaseRender],
		TelemetryPct:   s.PhasePct[PhaseTelemetry],
	}
}
