package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"

	"github.com/roach88/ankicheck/internal/reference"
)

// Config holds the complete tool configuration.
type Config struct {
	Logging LoggingConfig    `koanf:"logging"`
	Verify  VerifyConfig     `koanf:"verify"`
	Watch   WatchConfig      `koanf:"watch"`
	Syntax  reference.Syntax `koanf:"syntax"`
}

// LoggingConfig selects the log level and handler format.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// VerifyConfig holds defaults for the verify and watch commands.
type VerifyConfig struct {
	// Deck scopes the default scenario.
	Deck string `koanf:"deck" validate:"required"`
}

// WatchConfig holds the schedule of the watch command.
type WatchConfig struct {
	Schedule string `koanf:"schedule" validate:"required"`
}

var validate = validator.New()

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	setDefaults(&cfg)
	return &cfg
}

// Load reads configuration from the given YAML file path. An empty path
// yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	setDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Verify.Deck == "" {
		cfg.Verify.Deck = "Default"
	}
	if cfg.Watch.Schedule == "" {
		cfg.Watch.Schedule = "@every 1m"
	}

	def := reference.DefaultSyntax()
	s := &cfg.Syntax
	if s.IDProperty == "" {
		s.IDProperty = def.IDProperty
	}
	if s.DeckProperty == "" {
		s.DeckProperty = def.DeckProperty
	}
	if s.TagsProperty == "" {
		s.TagsProperty = def.TagsProperty
	}
	if s.FrontProperty == "" {
		s.FrontProperty = def.FrontProperty
	}
	if s.DeletePostfix == "" {
		s.DeletePostfix = def.DeletePostfix
	}
	if s.InlineBegin == "" {
		s.InlineBegin = def.InlineBegin
	}
	if s.InlineEnd == "" {
		s.InlineEnd = def.InlineEnd
	}
}

// Validate checks field constraints and that the watch schedule parses.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(cfg.Watch.Schedule); err != nil {
		return fmt.Errorf("invalid watch.schedule %q: %w", cfg.Watch.Schedule, err)
	}
	return nil
}
