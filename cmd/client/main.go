package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/app"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/config"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/telemetry"
)

func main() {
	logger := telemetry.WrapLogger(log.Default())

	envFile := os.Getenv(config.EnvPrefix + "ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := config.LoadEnv(envFile); err != nil {
		log.Fatalf("%v", err)
	}

	cfg := config.Default()
	config.ApplyEnv(&cfg, os.LookupEnv, logger)

	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "websocket URL of the game server")
	flag.StringVar(&cfg.Name, "name", cfg.Name, "player name sent with the join request")
	flag.BoolVar(&cfg.Headless, "headless", cfg.Headless, "run without a window and let a bot play")
	flag.StringVar(&cfg.Bot, "bot", cfg.Bot, "headless bot policy: scripted or random")
	flag.StringVar(&cfg.BotSeed, "seed", cfg.BotSeed, "seed for the random bot (empty uses the clock)")
	flag.DurationVar(&cfg.Interpolation, "interp", cfg.Interpolation, "interpolation window")
	flag.BoolVar(&cfg.Extrapolate, "extrapolate", cfg.Extrapolate, "project players past their last snapshot")
	flag.DurationVar(&cfg.MaxExtrapolation, "max-extrapolation", cfg.MaxExtrapolation, "cap on extrapolation past the window")
	flag.IntVar(&cfg.GridWidth, "grid-width", cfg.GridWidth, "grid width in cells")
	flag.IntVar(&cfg.GridHeight, "grid-height", cfg.GridHeight, "grid height in cells")
	flag.IntVar(&cfg.CellSize, "cell", cfg.CellSize, "cell size in pixels")
	flag.Float64Var(&cfg.MoveRate, "move-rate", cfg.MoveRate, "maximum moves per second")
	flag.Func("log-sinks", "comma separated log sinks (console, json)", func(value string) error {
		cfg.Logging.EnabledSinks = config.SplitList(value)
		return nil
	})
	flag.StringVar(&cfg.Logging.JSON.FilePath, "log-file", cfg.Logging.JSON.FilePath, "path of the json log sink")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Config{Client: cfg, Logger: logger}); err != nil {
		log.Fatalf("%v", err)
	}
}
