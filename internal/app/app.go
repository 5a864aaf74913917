package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/time/rate"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/bot"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/config"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/motion"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/net/ws"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/render"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/session"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/telemetry"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/world"
	"github.com/dntelisa/SR-S9-Projet-Client/logging"
	loggingSinks "github.com/dntelisa/SR-S9-Projet-Client/logging/sinks"
)

type Config struct {
	Client config.Config
	Logger telemetry.Logger
	// Console receives the console sink output. Defaults to os.Stdout.
	Console io.Writer
	// Sinks are added to the router next to the configured ones.
	Sinks []logging.NamedSink
	// Policy overrides the bot named in Client.Bot.
	Policy bot.Policy
}

func Run(ctx context.Context, cfg Config) error {
	clientCfg := cfg.Client
	if err := clientCfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	fallbackLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	router, err := newRouter(clientCfg.Logging, cfg, fallbackLogger)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()
	publisher := logging.WithFields(router, map[string]any{"name": clientCfg.Name})

	w := world.New(motion.Config{
		Window:           clientCfg.Interpolation,
		Extrapolate:      clientCfg.Extrapolate,
		MaxExtrapolation: clientCfg.MaxExtrapolation,
		Bounds:           motion.Bounds{Width: clientCfg.GridWidth, Height: clientCfg.GridHeight},
	})
	lifecycle := session.New(session.Config{
		Name:         clientCfg.Name,
		FreezeWindow: clientCfg.FreezeWindow,
		Publisher:    publisher,
		Logger:       telemetryLogger,
	}, w)
	supervisor := ws.NewSupervisor(ws.SupervisorConfig{
		URL:        clientCfg.ServerURL,
		Binder:     lifecycle,
		MinBackoff: clientCfg.ReconnectMin,
		MaxBackoff: clientCfg.ReconnectMax,
		Publisher:  publisher,
		Logger:     telemetryLogger,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(runCtx)
	}()

	telemetryLogger.Printf("connecting to %s as %q", clientCfg.ServerURL, clientCfg.Name)
	if clientCfg.Headless {
		err = runHeadless(runCtx, cfg, lifecycle, telemetryLogger)
	} else {
		game := render.New(w, lifecycle, supervisor, render.Options{
			Title:      "Sweets - " + clientCfg.Name,
			GridWidth:  clientCfg.GridWidth,
			GridHeight: clientCfg.GridHeight,
			CellSize:   clientCfg.CellSize,
			MoveRate:   clientCfg.MoveRate,
			Logger:     telemetryLogger,
		})
		err = game.Run()
	}

	cancel()
	<-supervisorDone
	return err
}

func runHeadless(ctx context.Context, cfg Config, lifecycle *session.Lifecycle, logger telemetry.Logger) error {
	clientCfg := cfg.Client
	if err := lifecycle.WaitOpen(ctx, clientCfg.OpenTimeout); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connect to %s: %w", clientCfg.ServerURL, err)
	}
	if err := lifecycle.WaitJoined(ctx, clientCfg.JoinTimeout); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.Printf("join not acknowledged, playing anyway: %v", err)
	}

	policy := cfg.Policy
	if policy == nil {
		var err error
		policy, err = bot.PolicyByName(clientCfg.Bot, clientCfg.BotSeed)
		if err != nil {
			return err
		}
	}
	limiter := rate.NewLimiter(rate.Limit(clientCfg.MoveRate), 1)
	result, err := bot.Run(ctx, policy, lifecycle, limiter, logger)
	logger.Printf("bot stopped after %d moves (%d failed)", result.Sent, result.Failed)
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func newRouter(logCfg logging.Config, cfg Config, fallback *log.Logger) (*logging.Router, error) {
	var sinks []logging.NamedSink
	if logCfg.HasSink("console") {
		out := cfg.Console
		if out == nil {
			out = os.Stdout
		}
		sinks = append(sinks, logging.NamedSink{Name: "console", Sink: loggingSinks.NewConsoleSink(out, logCfg.Console)})
	}
	if logCfg.HasSink("json") {
		jsonSink, err := loggingSinks.OpenJSONFile(logCfg.JSON.FilePath, logCfg.JSON.FlushInterval)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, logging.NamedSink{Name: "json", Sink: jsonSink})
	}
	sinks = append(sinks, cfg.Sinks...)
	return logging.NewRouter(logging.SystemClock{}, logCfg, fallback, sinks)
}
