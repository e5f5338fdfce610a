package game

import (
	"log/slog"

	"github.com/pthm-cable/filament/telemetry"
)

// logWindow flushes one window record to CSV and, when enabled, the log.
func (g *Game) logWindow(ws telemetry.WindowStats) {
	if err := g.output.WriteWindow(ws); err != nil {
		logError("writing window stats", err)
	}
	if g.opts.LogStats || g.cfg.Telemetry.LogReports {
		slog.Info("window", "stats", ws)
	}
}

// logPerf flushes the rolling phase breakdown.
func (g *Game) logPerf(stats telemetry.PerfStats) {
	if err := g.output.WritePerf(stats, g.monitor.Reports()); err != nil {
		logError("writing perf stats", err)
	}
	if g.opts.LogStats || g.cfg.Telemetry.LogReports {
		slog.Info("perf", "stats", stats)
	}
}

func logError(msg string, err error) {
	slog.Error(msg, "error", err)
}
