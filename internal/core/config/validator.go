package config

import (
	"fmt"
	"net"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

var constantName = regexp.MustCompile(`^[A-Z][A-Za-z0-9_]*(::[A-Z][A-Za-z0-9_]*)*$`)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d", cfg.Version)
	}
	return nil
}

func validateLib(cfg *Config) error {
	if !constantName.MatchString(cfg.Lib.Name) {
		return fmt.Errorf("lib.name %q is not a Crystal constant name", cfg.Lib.Name)
	}
	return nil
}

func validatePreprocessor(cfg *Config) error {
	if strings.TrimSpace(cfg.Preprocessor.Command) == "" {
		return fmt.Errorf("preprocessor.command must not be empty")
	}
	if cfg.Preprocessor.Timeout < 0 {
		return fmt.Errorf("preprocessor.timeout must be >= 0")
	}
	for i, dir := range cfg.Preprocessor.IncludeDirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("preprocessor.include_dirs[%d] must not be empty", i)
		}
	}
	return nil
}

func validateFilter(cfg *Config) error {
	return validatePatterns("filter.internal_headers", cfg.Filter.InternalHeaders)
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be > 0")
	}
	if cfg.Watch.MaxRunsPerSecond <= 0 {
		return fmt.Errorf("watch.max_runs_per_second must be > 0")
	}
	if cfg.Watch.Burst <= 0 {
		return fmt.Errorf("watch.burst must be > 0")
	}
	return validatePatterns("watch.exclude", cfg.Watch.Exclude)
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path is required when history.enabled is true")
	}
	if cfg.History.Retention < 0 {
		return fmt.Errorf("history.retention must be >= 0")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if addr := strings.TrimSpace(cfg.Observability.MetricsAddr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("observability.metrics_addr %q: %w", addr, err)
		}
	}
	if endpoint := strings.TrimSpace(cfg.Observability.OTLPEndpoint); endpoint != "" {
		if _, _, err := net.SplitHostPort(endpoint); err != nil {
			return fmt.Errorf("observability.otlp_endpoint %q: %w", endpoint, err)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if cfg.Output.Path == "" {
		return nil
	}
	if strings.HasSuffix(cfg.Output.Path, string(filepath.Separator)) {
		return fmt.Errorf("output.path %q names a directory", cfg.Output.Path)
	}
	if cfg.History.Enabled && filepath.Clean(cfg.Output.Path) == filepath.Clean(cfg.History.Path) {
		return fmt.Errorf("output conflict: output.path and history.path share the same path %q", cfg.Output.Path)
	}
	return nil
}

func validatePatterns(field string, patterns []string) error {
	for i, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("%s[%d] must not be empty", field, i)
		}
		if _, err := glob.Compile(filepath.ToSlash(pattern), '/'); err != nil {
			return fmt.Errorf("%s[%d] %q: %w", field, i, pattern, err)
		}
	}
	return nil
}

// Validate runs every check and returns all failures.
func Validate(cfg *Config) []error {
	var errs []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validateLib,
		validatePreprocessor,
		validateFilter,
		validateOutput,
		validateWatch,
		validateHistory,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
