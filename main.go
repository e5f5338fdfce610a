package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/filament/config"
	"github.com/pthm-cable/filament/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	tier := flag.Int("tier", -1, "Capability tier 0-3 (-1 = probe the display)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Filament")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	runTier := *tier
	if runTier < 0 {
		runTier = probeTier()
	}
	slog.Info("starting", "seed", rngSeed, "tier", runTier)

	g, err := game.NewGame(game.Options{
		Seed:      rngSeed,
		Tier:      runTier,
		OutputDir: *outputDir,
		LogStats:  *logStats,
	})
	if err != nil {
		slog.Error("failed to create game", "error", err)
		rl.CloseWindow()
		os.Exit(1)
	}
	defer g.Unload()

	frames := 0
	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		frames++
		if *maxFrames > 0 && frames >= *maxFrames {
			break
		}
	}
}

// probeTier picks a starting capability tier from the display's refresh
// rate. Coarse on purpose: the adaptive loop corrects the preset within a
// few seconds either way.
func probeTier() int {
	hz := rl.GetMonitorRefreshRate(rl.GetCurrentMonitor())
	switch {
	case hz >= 120:
		return 3
	case hz >= 60:
		return 2
	case hz > 0:
		return 1
	default:
		return 0
	}
}
