package config

import (
	"time"
)

// DefaultPath is the configuration file looked up in the working directory
// when no -config flag is given.
const DefaultPath = "hbind.toml"

type Config struct {
	Version       int           `toml:"version"`
	Lib           Lib           `toml:"lib"`
	Preprocessor  Preprocessor  `toml:"preprocessor"`
	Filter        Filter        `toml:"filter"`
	Output        Output        `toml:"output"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
}

type Lib struct {
	Name string `toml:"name"`
	// Root is the include root. Empty means the header's directory, or the
	// nearest enclosing "include" directory.
	Root string `toml:"root"`
}

type Preprocessor struct {
	Command     string        `toml:"command"`
	Args        []string      `toml:"args"`
	IncludeDirs []string      `toml:"include_dirs"`
	Timeout     time.Duration `toml:"timeout"`
}

type Filter struct {
	InternalHeaders []string `toml:"internal_headers"`
}

type Output struct {
	// Path of the generated module; empty writes to stdout.
	Path string `toml:"path"`
}

type Watch struct {
	Debounce         time.Duration `toml:"debounce"`
	MaxRunsPerSecond float64       `toml:"max_runs_per_second"`
	Burst            int           `toml:"burst"`
	Exclude          []string      `toml:"exclude"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	// Retention is the number of runs kept per header; 0 keeps everything.
	Retention int `toml:"retention"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// Default returns a configuration with every default applied, as used when
// no configuration file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
