package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/aphid91/Fluoddity-Core/config"
	"github.com/aphid91/Fluoddity-Core/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics (pure CPU device)")
	presetPath := flag.String("preset", "", "Preset file (JSON or SIM string) to load at startup")
	outputDir := flag.String("output-dir", "", "Output directory for the per-run CSV log")
	seed := flag.Float64("seed", 0, "Rule seed in [0,1] (0 = built-in default)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	opts := game.Options{
		Headless:   *headless,
		RuleSeed:   *seed,
		PresetPath: *presetPath,
		OutputDir:  *outputDir,
	}

	if *headless {
		g, err := game.New(opts)
		if err != nil {
			slog.Error("startup failed", "error", err)
			os.Exit(1)
		}
		defer g.Unload()

		slog.Info("starting headless simulation",
			"seed", *seed,
			"max_ticks", *maxTicks,
		)

		for {
			g.UpdateHeadless()

			if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
				slog.Info("max ticks reached", "tick", g.Tick(), "frames", g.FramesEmitted())
				return
			}
		}
	}

	// Graphical mode: the device compiles shaders against the live
	// context, so the window comes up first.
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Fluoddity")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.New(opts)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
}
