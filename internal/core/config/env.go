package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: HBIND_[SECTION]_[KEY] (e.g., HBIND_PREPROCESSOR_COMMAND).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Lib.Name, "HBIND_LIB_NAME")
	setEnvString(&cfg.Lib.Root, "HBIND_LIB_ROOT")

	setEnvString(&cfg.Preprocessor.Command, "HBIND_PREPROCESSOR_COMMAND")
	setEnvList(&cfg.Preprocessor.IncludeDirs, "HBIND_PREPROCESSOR_INCLUDE_DIRS")
	setEnvDuration(&cfg.Preprocessor.Timeout, "HBIND_PREPROCESSOR_TIMEOUT")

	setEnvString(&cfg.Output.Path, "HBIND_OUTPUT_PATH")

	setEnvDuration(&cfg.Watch.Debounce, "HBIND_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRunsPerSecond, "HBIND_WATCH_MAX_RUNS_PER_SECOND")

	setEnvBool(&cfg.History.Enabled, "HBIND_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "HBIND_HISTORY_PATH")
	setEnvInt(&cfg.History.Retention, "HBIND_HISTORY_RETENTION")

	setEnvString(&cfg.Observability.MetricsAddr, "HBIND_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "HBIND_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits on the OS path list separator, like PATH.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		var out []string
		for _, part := range strings.Split(val, string(os.PathListSeparator)) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*target = out
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
