// Package config holds the client settings and the environment layer that
// overrides them.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/telemetry"
	"github.com/dntelisa/SR-S9-Projet-Client/logging"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "SWEETS_"

type Config struct {
	ServerURL string
	Name      string

	Headless bool
	Bot      string
	BotSeed  string

	Interpolation    time.Duration
	Extrapolate      bool
	MaxExtrapolation time.Duration
	FreezeWindow     time.Duration
	OpenTimeout      time.Duration
	JoinTimeout      time.Duration

	GridWidth  int
	GridHeight int
	CellSize   int

	ReconnectMin time.Duration
	ReconnectMax time.Duration
	MoveRate     float64

	Logging logging.Config
}

func Default() Config {
	return Config{
		ServerURL:        "ws://localhost:8080/ws",
		Name:             "player",
		Bot:              "random",
		Interpolation:    120 * time.Millisecond,
		MaxExtrapolation: 250 * time.Millisecond,
		FreezeWindow:     4 * time.Second,
		OpenTimeout:      time.Second,
		JoinTimeout:      time.Second,
		GridWidth:        20,
		GridHeight:       15,
		CellSize:         32,
		ReconnectMin:     500 * time.Millisecond,
		ReconnectMax:     8 * time.Second,
		MoveRate:         8,
		Logging:          logging.DefaultConfig(),
	}
}

// LoadEnv loads a dotenv file into the process environment. Variables that
// are already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from SWEETS_* variables found through lookup.
// Invalid values are reported through logger and leave the field unchanged.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool), logger telemetry.Logger) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if logger == nil {
		logger = telemetry.Discard()
	}
	env := envReader{lookup: lookup, logger: logger}

	env.str("SERVER_URL", &cfg.ServerURL)
	env.str("NAME", &cfg.Name)
	env.boolean("HEADLESS", &cfg.Headless)
	env.str("BOT", &cfg.Bot)
	env.str("BOT_SEED", &cfg.BotSeed)
	env.duration("INTERPOLATION", &cfg.Interpolation)
	env.boolean("EXTRAPOLATE", &cfg.Extrapolate)
	env.duration("MAX_EXTRAPOLATION", &cfg.MaxExtrapolation)
	env.duration("FREEZE_WINDOW", &cfg.FreezeWindow)
	env.duration("OPEN_TIMEOUT", &cfg.OpenTimeout)
	env.duration("JOIN_TIMEOUT", &cfg.JoinTimeout)
	env.integer("GRID_WIDTH", &cfg.GridWidth)
	env.integer("GRID_HEIGHT", &cfg.GridHeight)
	env.integer("CELL_SIZE", &cfg.CellSize)
	env.duration("RECONNECT_MIN", &cfg.ReconnectMin)
	env.duration("RECONNECT_MAX", &cfg.ReconnectMax)
	env.float("MOVE_RATE", &cfg.MoveRate)

	if raw, ok := env.get("LOG_SINKS"); ok {
		cfg.Logging.EnabledSinks = SplitList(raw)
	}
	if raw, ok := env.get("LOG_LEVEL"); ok {
		severity, err := logging.ParseSeverity(raw)
		if err != nil {
			logger.Printf("invalid %sLOG_LEVEL=%q: %v", EnvPrefix, raw, err)
		} else {
			cfg.Logging.MinimumSeverity = severity
		}
	}
	env.str("LOG_FILE", &cfg.Logging.JSON.FilePath)
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseDuration accepts Go duration syntax or a bare number of milliseconds.
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(raw)
}

type envReader struct {
	lookup func(string) (string, bool)
	logger telemetry.Logger
}

func (e envReader) get(name string) (string, bool) {
	raw, ok := e.lookup(EnvPrefix + name)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return raw, true
}

func (e envReader) str(name string, dst *string) {
	if raw, ok := e.get(name); ok {
		*dst = strings.TrimSpace(raw)
	}
}

func (e envReader) boolean(name string, dst *bool) {
	raw, ok := e.get(name)
	if !ok {
		return
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		e.logger.Printf("invalid %s%s=%q: %v", EnvPrefix, name, raw, err)
		return
	}
	*dst = value
}

func (e envReader) integer(name string, dst *int) {
	raw, ok := e.get(name)
	if !ok {
		return
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		e.logger.Printf("invalid %s%s=%q: %v", EnvPrefix, name, raw, err)
		return
	}
	*dst = value
}

func (e envReader) float(name string, dst *float64) {
	raw, ok := e.get(name)
	if !ok {
		return
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		e.logger.Printf("invalid %s%s=%q: %v", EnvPrefix, name, raw, err)
		return
	}
	*dst = value
}

func (e envReader) duration(name string, dst *time.Duration) {
	raw, ok := e.get(name)
	if !ok {
		return
	}
	value, err := ParseDuration(raw)
	if err != nil {
		e.logger.Printf("invalid %s%s=%q: %v", EnvPrefix, name, raw, err)
		return
	}
	*dst = value
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.ServerURL); err != nil {
		errs = append(errs, fmt.Errorf("server url: %w", err))
	} else if u.Scheme != "ws" && u.Scheme != "wss" {
		errs = append(errs, fmt.Errorf("server url %q: scheme must be ws or wss", c.ServerURL))
	} else if u.Host == "" {
		errs = append(errs, fmt.Errorf("server url %q: missing host", c.ServerURL))
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	switch strings.ToLower(c.Bot) {
	case "scripted", "random":
	default:
		errs = append(errs, fmt.Errorf("unknown bot policy %q", c.Bot))
	}
	positive := []struct {
		name  string
		value time.Duration
	}{
		{"interpolation", c.Interpolation},
		{"freeze window", c.FreezeWindow},
		{"open timeout", c.OpenTimeout},
		{"join timeout", c.JoinTimeout},
		{"reconnect min", c.ReconnectMin},
	}
	for _, field := range positive {
		if field.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", field.name, field.value))
		}
	}
	if c.MaxExtrapolation < 0 {
		errs = append(errs, fmt.Errorf("max extrapolation must not be negative, got %s", c.MaxExtrapolation))
	}
	if c.ReconnectMax < c.ReconnectMin {
		errs = append(errs, fmt.Errorf("reconnect max %s is below reconnect min %s", c.ReconnectMax, c.ReconnectMin))
	}
	if c.GridWidth <= 0 || c.GridHeight <= 0 {
		errs = append(errs, fmt.Errorf("grid %dx%d must be positive", c.GridWidth, c.GridHeight))
	}
	if c.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("cell size must be positive, got %d", c.CellSize))
	}
	if c.MoveRate <= 0 {
		errs = append(errs, fmt.Errorf("move rate must be positive, got %g", c.MoveRate))
	}
	for _, sink := range c.Logging.EnabledSinks {
		switch sink {
		case "console", "json":
		default:
			errs = append(errs, fmt.Errorf("unknown log sink %q", sink))
		}
	}
	if c.Logging.HasSink("json") && c.Logging.JSON.FilePath == "" {
		errs = append(errs, errors.New("json log sink requires a log file"))
	}
	return errors.Join(errs...)
}
