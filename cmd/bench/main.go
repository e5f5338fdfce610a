// Command bench runs the simulation and quality loop headless against a
// synthetic frame-cost model. Useful for tuning the hysteresis constants
// without a GPU: it prints an ascii fps chart and writes the same CSVs as
// a graphical run.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/guptarohit/asciigraph"

	"github.com/pthm-cable/filament/config"
	"github.com/pthm-cable/filament/effects"
	"github.com/pthm-cable/filament/graph"
	"github.com/pthm-cable/filament/particles"
	"github.com/pthm-cable/filament/quality"
	"github.com/pthm-cable/filament/spatial"
	"github.com/pthm-cable/filament/telemetry"
)

// costModel estimates a frame's wall time (ms) from the work it did. The
// constants are rough fits from a mid-range laptop; they only need to be
// monotone in the load for the controller's behavior to be representative.
type costModel struct {
	baseMs      float64
	perParticle float64 // ms per particle
	perLink     float64 // ms per edge
	renderMs    float64 // ms at render scale 1.0
	jitterMs    float64
}

func (cm costModel) frameMs(count, edges int, s quality.Settings, rng *rand.Rand) float64 {
	ms := cm.baseMs +
		float64(count)*cm.perParticle +
		float64(edges)*cm.perLink +
		cm.renderMs*s.RenderScale*s.RenderScale +
		float64(s.EffectsLevel)*1.5
	ms += rng.NormFloat64() * cm.jitterMs
	if ms < 0.1 {
		ms = 0.1
	}
	return ms
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	tier := flag.Int("tier", 3, "Starting capability tier 0-3")
	seed := flag.Int64("seed", 1, "RNG seed")
	duration := flag.Float64("duration", 60, "Simulated seconds to run")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs")
	speed := flag.Float64("machine-speed", 1.0, "Cost multiplier; <1 simulates a faster machine")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if err := run(cfg, *tier, *seed, *duration, *outputDir, *speed); err != nil {
		slog.Error("bench failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, tier int, seed int64, duration float64, outputDir string, machineSpeed float64) error {
	limits := quality.Limits{
		TargetFPS:    float64(cfg.Screen.TargetFPS),
		MinParticles: cfg.Quality.MinParticles,
		MaxParticles: cfg.Quality.MaxParticles,
		ParticleStep: cfg.Quality.ParticleStep,
	}
	tuning := quality.Tuning{
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
	controller, err := quality.NewController(limits, tuning, quality.PresetForTier(tier))
	if err != nil {
		return err
	}

	grid, err := spatial.NewGrid(cfg.Derived.ConnDist32)
	if err != nil {
		return err
	}
	builder, err := graph.NewBuilder(graph.Params{
		ConnectionDistance: cfg.Derived.ConnDist32,
		MaxPerParticle:     cfg.Links.MaxPerParticle,
		ScanLimit:          cfg.Links.ScanLimit,
		MaxSegments:        cfg.Links.MaxSegments,
	})
	if err != nil {
		return err
	}

	settings := controller.Settings()
	field, err := particles.NewField(particles.StructuralConfig{
		Count:  settings.ParticleCount,
		Bounds: cfg.Derived.Bounds32,
		Seed:   seed,
	})
	if err != nil {
		return err
	}
	fx := effects.NewSystem(seed)

	output, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer output.Close()

	monitor := telemetry.NewFrameMonitor(telemetry.ReportInterval)
	rng := rand.New(rand.NewSource(seed))
	model := costModel{
		baseMs:      4.0 * machineSpeed,
		perParticle: 0.006 * machineSpeed,
		perLink:     0.001 * machineSpeed,
		renderMs:    6.0 * machineSpeed,
		jitterMs:    0.5,
	}

	overrides := particles.Overrides{
		Speed:        float32(cfg.Field.Speed),
		FlowScale:    float32(cfg.Field.FlowScale),
		FlowStrength: float32(cfg.Field.FlowStrength),
		Damping:      float32(cfg.Field.Damping),
	}
	dyn := particles.BuildDynamicConfig(settings, overrides)

	// Simulated clock: each frame's cost advances time, so an overloaded
	// configuration yields low fps exactly as it would on real hardware.
	now := time.Unix(0, 0)
	end := now.Add(time.Duration(duration * float64(time.Second)))
	const dt = float32(1.0 / 60.0)

	var edges []graph.Edge
	var fpsSeries []float64

	for now.Before(end) {
		settings = controller.Settings()

		field.Step(dt, dyn)
		grid.Rebuild(field.Positions(), field.Count())
		edges = builder.Build(edges, field.Positions(), field.Count(), grid)
		fx.Update(dt, settings.EffectsLevel, field.Positions(), edges)

		frameMs := model.frameMs(field.Count(), len(edges), settings, rng)
		frameDur := time.Duration(frameMs * float64(time.Millisecond))
		now = now.Add(frameDur)

		if monitor.Record(now, frameDur) {
			m := monitor.Snapshot()
			controller.ObserveFPS(m.FPS)
			fpsSeries = append(fpsSeries, m.FPS)

			mean, std, p50, p90 := telemetry.ComputeWindowStats(monitor.Samples())
			ws := telemetry.WindowStats{
				WindowEnd:     monitor.Reports(),
				FPS:           m.FPS,
				FrameMsMean:   mean,
				FrameMsStd:    std,
				FrameMsP50:    p50,
				FrameMsP90:    p90,
				ParticleCount: settings.ParticleCount,
				EffectsLevel:  settings.EffectsLevel,
				RenderScale:   settings.RenderScale,
				QualityLabel:  controller.State().String(),
				Edges:         len(edges),
				OccupiedCells: grid.OccupiedCells(),
			}
			if err := output.WriteWindow(ws); err != nil {
				return err
			}
		}

		if controller.Update(now) {
			s := controller.Settings()
			if s.ParticleCount != field.Count() {
				if err := field.Resize(s.ParticleCount); err != nil {
					return err
				}
			}
			dyn = particles.BuildDynamicConfig(s, overrides)
		}
	}

	final := controller.Settings()
	fmt.Printf("fps over %.0fs (target %d), final: %s particles=%d effects=%d scale=%.2f\n",
		duration, cfg.Screen.TargetFPS, controller.State(), final.ParticleCount, final.EffectsLevel, final.RenderScale)
	if len(fpsSeries) > 0 {
		fmt.Println(asciigraph.Plot(fpsSeries,
			asciigraph.Height(12),
			asciigraph.Caption("fps per reporting window"),
		))
	}
	return nil
}
