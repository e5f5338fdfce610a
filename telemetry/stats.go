package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats summarizes one reporting window for CSV output and the HUD.
type WindowStats struct {
	WindowEnd int64 `csv:"window_end"` // report sequence number

	FPS         float64 `csv:"fps"`
	FrameMsMean float64 `csv:"frame_ms_mean"`
	FrameMsStd  float64 `csv:"frame_ms_std"`
	FrameMsP50  float64 `csv:"frame_ms_p50"`
	FrameMsP90  float64 `csv:"frame_ms_p90"`

	// Quality settings in effect at window end.
	ParticleCount int     `csv:"particles"`
	EffectsLevel  int     `csv:"effects"`
	RenderScale   float64 `csv:"render_scale"`
	QualityLabel  string  `csv:"quality"`

	// Proximity graph load.
	Edges         int `csv:"edges"`
	OccupiedCells int `csv:"occupied_cells"`
}

// ComputeWindowStats derives summary statistics from the frame-duration
// samples (ms) of the closed window. Empty input yields zeros.
func ComputeWindowStats(frameMs []float64) (mean, std, p50, p90 float64) {
	if len(frameMs) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(frameMs, nil)
	if len(frameMs) > 1 {
		std = stat.StdDev(frameMs, nil)
	}

	sorted := make([]float64, len(frameMs))
	copy(sorted, frameMs)
	sort.Float64s(sorted)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return mean, std, p50, p90
}

// LogValue implements slog.LogValuer.
func (w WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_end", w.WindowEnd),
		slog.Float64("fps", w.FPS),
		slog.Float64("frame_ms_mean", w.FrameMsMean),
		slog.Float64("frame_ms_p90", w.FrameMsP90),
		slog.Int("particles", w.ParticleCount),
		slog.Int("effects", w.EffectsLevel),
		slog.Float64("render_scale", w.RenderScale),
		slog.String("quality", w.QualityLabel),
		slog.Int("edges", w.Edges),
	)
}
