// Package config assembles runtime settings from defaults, an optional YAML
// file and EMM_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/star/emmproc/internal/model"
)

// Config holds every runtime setting.
type Config struct {
	ModelDir    string `yaml:"model_dir"`
	MinYear     int    `yaml:"min_year"`
	Epochs      int    `yaml:"epochs"`
	MainPattern string `yaml:"main_pattern"`
	SVPattern   string `yaml:"sv_pattern"`
	GeoidFile   string `yaml:"geoid_file"`
	MetricsFile string `yaml:"metrics_file"`
	Progress    bool   `yaml:"progress"`
	LogLevel    string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	lc := model.DefaultLoadConfig()
	return Config{
		ModelDir:    ".",
		MinYear:     lc.MinYear,
		Epochs:      lc.Epochs,
		MainPattern: lc.MainPattern,
		SVPattern:   lc.SVPattern,
		LogLevel:    "info",
	}
}

// ModelConfig returns the coefficient file layout.
func (c Config) ModelConfig() model.LoadConfig {
	return model.LoadConfig{
		MinYear:     c.MinYear,
		Epochs:      c.Epochs,
		MainPattern: c.MainPattern,
		SVPattern:   c.SVPattern,
	}
}

// Level maps LogLevel to a slog level. Unknown names give info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads .env if present, then the YAML file named by EMM_CONFIG, then
// the EMM_* variables.
func Load(logger *slog.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("EMM_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
		logger.Debug("loaded config file", "path", path)
	}

	applyEnv(logger, &cfg, os.Getenv)

	logger.Debug("runtime config",
		"model_dir", cfg.ModelDir,
		"min_year", cfg.MinYear,
		"epochs", cfg.Epochs,
		"geoid_file", cfg.GeoidFile,
		"metrics_file", cfg.MetricsFile,
		"progress", cfg.Progress,
	)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config %q: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("parsing config %q: %w", path, err)
	}
	return nil
}

func applyEnv(logger *slog.Logger, cfg *Config, getenv func(string) string) {
	if v := getenv("EMM_MODEL_DIR"); v != "" {
		cfg.ModelDir = v
	}

	if v := getenv("EMM_MIN_YEAR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			logger.Warn("invalid EMM_MIN_YEAR value, using default", "value", v, "default", cfg.MinYear)
		} else {
			cfg.MinYear = n
		}
	}

	if v := getenv("EMM_EPOCHS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid EMM_EPOCHS value, using default", "value", v, "default", cfg.Epochs)
		} else {
			cfg.Epochs = n
		}
	}

	if v := getenv("EMM_MAIN_PATTERN"); v != "" {
		cfg.MainPattern = v
	}
	if v := getenv("EMM_SV_PATTERN"); v != "" {
		cfg.SVPattern = v
	}
	if v := getenv("EMM_GEOID_FILE"); v != "" {
		cfg.GeoidFile = v
	}
	if v := getenv("EMM_METRICS_FILE"); v != "" {
		cfg.MetricsFile = v
	}

	if v := getenv("EMM_PROGRESS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid EMM_PROGRESS value, using default", "value", v, "default", cfg.Progress)
		} else {
			cfg.Progress = enabled
		}
	}

	if v := getenv("EMM_LOG_LEVEL"); v != "" {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "warning", "error":
			cfg.LogLevel = v
		default:
			logger.Warn("invalid EMM_LOG_LEVEL value, using default", "value", v, "default", cfg.LogLevel)
		}
	}
}
