package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/devserver"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/telemetry"
)

func main() {
	cfg := devserver.DefaultConfig()
	addr := flag.String("addr", ":8080", "listen address")
	flag.IntVar(&cfg.GridWidth, "grid-width", cfg.GridWidth, "grid width in cells")
	flag.IntVar(&cfg.GridHeight, "grid-height", cfg.GridHeight, "grid height in cells")
	flag.IntVar(&cfg.Sweets, "sweets", cfg.Sweets, "sweets on the grid at once")
	flag.IntVar(&cfg.TickRate, "tick-rate", cfg.TickRate, "state broadcasts per second")
	flag.IntVar(&cfg.WinScore, "win-score", cfg.WinScore, "score that ends a round")
	flag.DurationVar(&cfg.RoundPause, "round-pause", cfg.RoundPause, "pause between rounds")
	flag.Int64Var(&cfg.Seed, "seed", 0, "random seed (0 uses the clock)")
	flag.Parse()

	logger := telemetry.WrapLogger(log.Default())
	cfg.Logger = logger

	hub := devserver.NewHub(cfg)
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	handler := devserver.NewHTTPHandler(hub, logger)
	srv := &http.Server{Addr: *addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("dev server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}
