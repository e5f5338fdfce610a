// Package game wires the visualization together: the particle field, the
// per-frame spatial index and proximity graph, the adaptive quality loop,
// and the renderer.
package game

import (
	"fmt"
	"path/filepath"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/filament/config"
	"github.com/pthm-cable/filament/effects"
	"github.com/pthm-cable/filament/graph"
	"github.com/pthm-cable/filament/particles"
	"github.com/pthm-cable/filament/quality"
	"github.com/pthm-cable/filament/renderer"
	"github.com/pthm-cable/filament/spatial"
	"github.com/pthm-cable/filament/telemetry"
	"github.com/pthm-cable/filament/ui"
)

// Perf stats are flushed every N fps reports.
const perfFlushEvery = 5

// Options holds run options assembled by main.
type Options struct {
	Seed      int64
	Tier      int // capability tier 0..3; out of range = most conservative
	OutputDir string
	LogStats  bool
}

// Game holds the complete visualization state. Single-threaded: every
// method runs on the render loop.
type Game struct {
	cfg  *config.Config
	opts Options

	monitor    *telemetry.FrameMonitor
	perf       *telemetry.PerfCollector
	output     *telemetry.OutputManager
	controller *quality.Controller

	grid    *spatial.Grid
	builder *graph.Builder
	field   *particles.Field
	fx      *effects.System

	scene *renderer.Scene
	panel *ui.Panel

	overrides particles.Overrides
	dyn       particles.DynamicConfig
	applied   quality.Settings
	edges     []graph.Edge

	paused bool
}

// NewGame creates a game instance from the loaded configuration.
// Must be called after rl.InitWindow.
func NewGame(opts Options) (*Game, error) {
	cfg := config.Cfg()

	limits := quality.Limits{
		TargetFPS:    float64(cfg.Screen.TargetFPS),
		MinParticles: cfg.Quality.MinParticles,
		MaxParticles: cfg.Quality.MaxParticles,
		ParticleStep: cfg.Quality.ParticleStep,
	}
	controller, err := quality.NewController(limits, tuningFromConfig(cfg), quality.PresetForTier(opts.Tier))
	if err != nil {
		return nil, fmt.Errorf("creating quality controller: %w", err)
	}

	// Cell size equals the connection distance so a one-cell stencil
	// covers the full interaction radius.
	grid, err := spatial.NewGrid(cfg.Derived.ConnDist32)
	if err != nil {
		return nil, fmt.Errorf("creating spatial grid: %w", err)
	}

	builder, err := graph.NewBuilder(graph.Params{
		ConnectionDistance: cfg.Derived.ConnDist32,
		MaxPerParticle:     cfg.Links.MaxPerParticle,
		ScanLimit:          cfg.Links.ScanLimit,
		MaxSegments:        cfg.Links.MaxSegments,
	})
	if err != nil {
		return nil, fmt.Errorf("creating graph builder: %w", err)
	}

	settings := controller.Settings()
	field, err := particles.NewField(particles.StructuralConfig{
		Count:  settings.ParticleCount,
		Bounds: cfg.Derived.Bounds32,
		Seed:   opts.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("creating particle field: %w", err)
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if dir := output.Dir(); dir != "" {
		// Snapshot the effective config next to the run's CSVs.
		if err := cfg.WriteYAML(filepath.Join(dir, "config.yaml")); err != nil {
			return nil, err
		}
	}

	overrides := particles.Overrides{
		Speed:        float32(cfg.Field.Speed),
		FlowScale:    float32(cfg.Field.FlowScale),
		FlowStrength: float32(cfg.Field.FlowStrength),
		Damping:      float32(cfg.Field.Damping),
	}

	g := &Game{
		cfg:        cfg,
		opts:       opts,
		monitor:    telemetry.NewFrameMonitor(telemetry.ReportInterval),
		perf:       telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		output:     output,
		controller: controller,
		grid:       grid,
		builder:    builder,
		field:      field,
		fx:         effects.NewSystem(opts.Seed),
		scene:      renderer.NewScene(int32(cfg.Screen.Width), int32(cfg.Screen.Height), settings.RenderScale, cfg.Derived.Bounds32*1.8),
		panel:      ui.NewPanel(),
		overrides:  overrides,
		applied:    settings,
		edges:      make([]graph.Edge, 0, cfg.Links.MaxSegments),
	}
	g.dyn = particles.BuildDynamicConfig(settings, overrides)
	return g, nil
}

// tuningFromConfig maps the config surface onto the controller's tuning.
func tuningFromConfig(cfg *config.Config) quality.Tuning {
	return quality.Tuning{
		StabilityBand:     cfg.Quality.StabilityBand,
		FastPathDeficit:   cfg.Quality.FastPathDeficit,
		SustainedRequired: cfg.Quality.SustainedRequired,
		AdjustInterval:    cfg.Derived.AdjustInterval,
		HistoryLen:        cfg.Quality.HistoryLen,
		MinSamples:        cfg.Quality.MinSamples,
		UpgradeDeficit:    cfg.Quality.UpgradeDeficit,
		UpgradeHeadroom:   cfg.Quality.UpgradeHeadroom,
		RenderScaleStep:   cfg.Quality.RenderScaleStep,
	}
}

// Update advances one frame: input, simulation, analysis passes, and the
// quality feedback loop. Timing comes from raylib's frame clock.
func (g *Game) Update() {
	now := time.Now()
	dt := rl.GetFrameTime()
	frameDur := time.Duration(float64(dt) * float64(time.Second))

	g.perf.StartFrame()
	g.handleInput()

	settings := g.controller.Settings()

	if !g.paused {
		g.perf.StartPhase(telemetry.PhaseSimulate)
		g.field.Step(dt, g.dyn)

		g.perf.StartPhase(telemetry.PhaseSpatialGrid)
		g.grid.Rebuild(g.field.Positions(), g.field.Count())

		g.perf.StartPhase(telemetry.PhaseLinks)
		g.edges = g.builder.Build(g.edges, g.field.Positions(), g.field.Count(), g.grid)

		g.perf.StartPhase(telemetry.PhaseEffects)
		g.fx.Update(dt, settings.EffectsLevel, g.field.Positions(), g.edges)
	}

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	// Frame recording is unconditional: pausing or tearing down must never
	// silently drop counted frames.
	if g.monitor.Record(now, frameDur) {
		g.onReport()
	}

	if g.controller.Update(now) || g.controller.Settings() != g.applied {
		g.applySettings()
	}
}

// onReport handles a closed fps window: feeds the controller and flushes
// telemetry.
func (g *Game) onReport() {
	m := g.monitor.Snapshot()
	g.controller.ObserveFPS(m.FPS)

	mean, std, p50, p90 := telemetry.ComputeWindowStats(g.monitor.Samples())
	settings := g.controller.Settings()
	ws := telemetry.WindowStats{
		WindowEnd:     g.monitor.Reports(),
		FPS:           m.FPS,
		FrameMsMean:   mean,
		FrameMsStd:    std,
		FrameMsP50:    p50,
		FrameMsP90:    p90,
		ParticleCount: settings.ParticleCount,
		EffectsLevel:  settings.EffectsLevel,
		RenderScale:   settings.RenderScale,
		QualityLabel:  g.controller.State().String(),
		Edges:         len(g.edges),
		OccupiedCells: g.grid.OccupiedCells(),
	}
	g.logWindow(ws)

	if g.monitor.Reports()%perfFlushEvery == 0 {
		g.logPerf(g.perf.Stats())
	}
}

// applySettings pushes the controller's output into the structural and
// render state. Particle count is a cold parameter (reallocates buffers);
// render scale recreates the target; the dynamic config is rebuilt as a
// pure function of the new settings.
func (g *Game) applySettings() {
	settings := g.controller.Settings()

	if settings.ParticleCount != g.field.Count() {
		if err := g.field.Resize(settings.ParticleCount); err != nil {
			// Counts from the controller are always within validated
			// bounds; a failure here is a programming error.
			panic(err)
		}
	}
	g.scene.SetRenderScale(settings.RenderScale)
	g.dyn = particles.BuildDynamicConfig(settings, g.overrides)
	g.applied = settings
}

// handleInput processes keyboard shortcuts.
func (g *Game) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.panel.Toggle()
	}

	presets := map[int32]quality.Level{
		rl.KeyOne:   quality.LevelMinimal,
		rl.KeyTwo:   quality.LevelLow,
		rl.KeyThree: quality.LevelMedium,
		rl.KeyFour:  quality.LevelHigh,
	}
	for key, level := range presets {
		if rl.IsKeyPressed(key) {
			g.controller.SetLevel(level)
		}
	}
}

// Draw renders the frame.
func (g *Game) Draw() {
	g.perf.StartPhase(telemetry.PhaseRender)

	g.scene.Render(g.field.Positions(), g.edges, g.fx, g.controller.Settings())

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	g.scene.Blit()
	g.drawHUD()
	g.panel.Draw(g.controller)
	rl.EndDrawing()

	g.perf.EndFrame()
}

// drawHUD renders the metrics readout.
func (g *Game) drawHUD() {
	m := g.monitor.Snapshot()
	settings := g.controller.Settings()

	rl.DrawText(fmt.Sprintf("fps: %.0f  frame: %.1fms", m.FPS, m.FrameTimeAvg), 10, 10, 20, rl.White)
	rl.DrawText(fmt.Sprintf("particles: %d  links: %d", g.field.Count(), len(g.edges)), 10, 35, 20, rl.White)
	rl.DrawText(fmt.Sprintf("quality: %s  effects: %d  scale: %.2f",
		g.controller.State(), settings.EffectsLevel, settings.RenderScale), 10, 60, 20, rl.White)
	rl.DrawText("[space] pause  [tab] panel  [1-4] preset", 10, 85, 10, rl.Gray)
	if g.paused {
		rl.DrawText("PAUSED", 10, int32(g.cfg.Screen.Height)-30, 20, rl.Yellow)
	}
}

// Unload releases resources and flushes telemetry.
func (g *Game) Unload() {
	g.scene.Unload()
	if err := g.output.Close(); err != nil {
		logError("closing output", err)
	}
}
