package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"hbind/internal/core/errors"
	"hbind/internal/engine/binding"
	"hbind/internal/engine/preprocess"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "config file not found"), errors.CtxPath, path)
		}
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}

	applyDefaults(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.AddContext(
			errors.Wrap(stderrors.Join(errs...), errors.CodeValidationError, "invalid config"),
			errors.CtxPath, path,
		)
	}

	return &cfg, nil
}

// LoadOptional loads path, falling back to Default when the file does not
// exist. Only the implicit default path may be missing; an explicitly named
// file must exist.
func LoadOptional(path string, explicit bool) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && !explicit && errors.IsCode(err, errors.CodeNotFound) {
		return Default(), nil
	}
	return cfg, err
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Lib.Name) == "" {
		cfg.Lib.Name = binding.DefaultLibName
	}

	if strings.TrimSpace(cfg.Preprocessor.Command) == "" {
		cfg.Preprocessor.Command = "gcc"
	}
	if cfg.Preprocessor.Args == nil {
		cfg.Preprocessor.Args = append([]string(nil), preprocess.DefaultArgs...)
	}
	if cfg.Preprocessor.Timeout == 0 {
		cfg.Preprocessor.Timeout = 30 * time.Second
	}

	if cfg.Filter.InternalHeaders == nil {
		cfg.Filter.InternalHeaders = append([]string(nil), preprocess.DefaultInternalPatterns...)
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 200 * time.Millisecond
	}
	if cfg.Watch.MaxRunsPerSecond <= 0 {
		cfg.Watch.MaxRunsPerSecond = 2
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 1
	}
	if cfg.Watch.Exclude == nil {
		cfg.Watch.Exclude = []string{".git", "*.swp", "*~"}
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = ".hbind/history.db"
	}
	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "hbind"
	}
}
