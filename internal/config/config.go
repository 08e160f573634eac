package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string        `env:"PIXLNARY_HTTP_ADDR" envDefault:":4000" validate:"required"`
	BoardSize      int           `env:"PIXLNARY_BOARD_SIZE" envDefault:"50" validate:"min=1,max=256"`
	RoundSeconds   int           `env:"PIXLNARY_ROUND_SECONDS" envDefault:"60" validate:"min=1"`
	TickInterval   time.Duration `env:"PIXLNARY_TICK_INTERVAL" envDefault:"1s" validate:"gt=0"`
	DefaultRoom    string        `env:"PIXLNARY_DEFAULT_ROOM" envDefault:"pixlnary" validate:"required,max=64"`
	WordsFile      string        `env:"PIXLNARY_WORDS_FILE"`
	AllowedOrigins []string      `env:"PIXLNARY_ALLOWED_ORIGINS" envDefault:"*" envSeparator:"," validate:"min=1"`
	NATSURL        string        `env:"PIXLNARY_NATS_URL" validate:"omitempty,url"`
	InboundRate    float64       `env:"PIXLNARY_INBOUND_RATE" envDefault:"20" validate:"gt=0"`
	InboundBurst   int           `env:"PIXLNARY_INBOUND_BURST" envDefault:"40" validate:"min=1"`
	OutboxSize     int           `env:"PIXLNARY_OUTBOX_SIZE" envDefault:"256" validate:"min=1"`
	LogLevel       string        `env:"PIXLNARY_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogDevelopment bool          `env:"PIXLNARY_LOG_DEVELOPMENT"`
}

// Load reads an optional .env file, then the environment, then flags.
// Flags win over the environment.
func Load(fset *flag.FlagSet, args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fset.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	fset.IntVar(&cfg.BoardSize, "board-size", cfg.BoardSize, "side length of the pixel board")
	fset.IntVar(&cfg.RoundSeconds, "round-seconds", cfg.RoundSeconds, "countdown length of a round")
	fset.StringVar(&cfg.DefaultRoom, "room", cfg.DefaultRoom, "room joined when a client names none")
	fset.StringVar(&cfg.WordsFile, "words", cfg.WordsFile, "YAML word list (built-in list when empty)")
	fset.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS server to mirror room events to")
	fset.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fset.BoolVar(&cfg.LogDevelopment, "dev", cfg.LogDevelopment, "human readable logs")
	if args == nil {
		args = []string{}
	}
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
