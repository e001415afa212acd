package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"hbind/internal/core/errors"
	"hbind/internal/engine/preprocess"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hbind.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
[lib]
name = "LibSDL"
root = "/opt/sdl/include"

[preprocessor]
command = "clang"
args = ["-E", "-dD"]
include_dirs = ["/opt/fake_libc_include"]
timeout = "10s"

[filter]
internal_headers = ["**/fake_libc_include/**"]

[output]
path = "src/lib_sdl.cr"

[watch]
debounce = "1s"
max_runs_per_second = 0.5

[history]
enabled = true
path = "state/history.db"
retention = 20

[observability]
metrics_addr = "127.0.0.1:9464"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Lib.Name != "LibSDL" {
		t.Errorf("Expected lib name LibSDL, got %q", cfg.Lib.Name)
	}
	if cfg.Lib.Root != "/opt/sdl/include" {
		t.Errorf("Expected root /opt/sdl/include, got %q", cfg.Lib.Root)
	}
	if cfg.Preprocessor.Command != "clang" {
		t.Errorf("Expected command clang, got %q", cfg.Preprocessor.Command)
	}
	if !reflect.DeepEqual(cfg.Preprocessor.Args, []string{"-E", "-dD"}) {
		t.Errorf("Unexpected args %v", cfg.Preprocessor.Args)
	}
	if cfg.Preprocessor.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %v", cfg.Preprocessor.Timeout)
	}
	if cfg.Output.Path != "src/lib_sdl.cr" {
		t.Errorf("Unexpected output path %q", cfg.Output.Path)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRunsPerSecond != 0.5 {
		t.Errorf("Expected 0.5 runs/s, got %v", cfg.Watch.MaxRunsPerSecond)
	}
	if !cfg.History.Enabled || cfg.History.Path != "state/history.db" || cfg.History.Retention != 20 {
		t.Errorf("Unexpected history section %+v", cfg.History)
	}
	if cfg.Observability.MetricsAddr != "127.0.0.1:9464" {
		t.Errorf("Unexpected metrics addr %q", cfg.Observability.MetricsAddr)
	}
	if cfg.Observability.ServiceName != "hbind" {
		t.Errorf("Expected default service name, got %q", cfg.Observability.ServiceName)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "version = 1\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Lib.Name != "Lib" {
		t.Errorf("Expected default lib name Lib, got %q", cfg.Lib.Name)
	}
	if cfg.Preprocessor.Command != "gcc" {
		t.Errorf("Expected default command gcc, got %q", cfg.Preprocessor.Command)
	}
	if !reflect.DeepEqual(cfg.Preprocessor.Args, preprocess.DefaultArgs) {
		t.Errorf("Expected default args, got %v", cfg.Preprocessor.Args)
	}
	if !reflect.DeepEqual(cfg.Filter.InternalHeaders, preprocess.DefaultInternalPatterns) {
		t.Errorf("Expected default internal patterns, got %v", cfg.Filter.InternalHeaders)
	}
	if cfg.Watch.Debounce != 200*time.Millisecond {
		t.Errorf("Expected default debounce 200ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.History.Enabled {
		t.Error("Expected history disabled by default")
	}
}

func TestLoadDefaultsDoNotAliasPackageSlices(t *testing.T) {
	cfg := Default()
	cfg.Preprocessor.Args[0] = "-changed"
	if preprocess.DefaultArgs[0] == "-changed" {
		t.Fatal("Default args share storage with the preprocess package")
	}
}

func TestLoadEmptyInternalHeadersDisablesFilter(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[filter]\ninternal_headers = []\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Filter.InternalHeaders) != 0 {
		t.Errorf("Expected no internal patterns, got %v", cfg.Filter.InternalHeaders)
	}
}

func TestLoadError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("Expected NOT_FOUND, got %v", err)
	}

	_, err = Load(writeConfig(t, "[lib\nname = "))
	if !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("Expected VALIDATION_ERROR for malformed TOML, got %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), DefaultPath)

	cfg, err := LoadOptional(missing, false)
	if err != nil {
		t.Fatalf("LoadOptional failed: %v", err)
	}
	if cfg.Lib.Name != "Lib" {
		t.Errorf("Expected defaults, got %+v", cfg.Lib)
	}

	if _, err := LoadOptional(missing, true); err == nil {
		t.Fatal("Expected error for explicitly named missing file")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"version", "version = 2\n", "unsupported config version 2"},
		{"lib name", "[lib]\nname = \"lib\"\n", `lib.name "lib" is not a Crystal constant name`},
		{"timeout", "[preprocessor]\ntimeout = \"-1s\"\n", "preprocessor.timeout must be >= 0"},
		{"include dir", "[preprocessor]\ninclude_dirs = [\" \"]\n", "preprocessor.include_dirs[0] must not be empty"},
		{"glob", "[filter]\ninternal_headers = [\"[\"]\n", "filter.internal_headers[0]"},
		{"metrics addr", "[observability]\nmetrics_addr = \"9464\"\n", "observability.metrics_addr"},
		{"history retention", "[history]\nenabled = true\nretention = -1\n", "history.retention must be >= 0"},
		{"output conflict", "[output]\npath = \"x.db\"\n[history]\nenabled = true\npath = \"x.db\"\n", "output conflict"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errors.IsCode(err, errors.CodeValidationError) {
				t.Errorf("Expected VALIDATION_ERROR, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLibNameAllowsNamespaces(t *testing.T) {
	cfg := Default()
	cfg.Lib.Name = "SDL::LibSDL"
	if errs := Validate(cfg); len(errs) != 0 {
		t.Fatalf("Expected namespaced lib name to validate, got %v", errs)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Lib.Name = "bad"
	cfg.Watch.MaxRunsPerSecond = 0
	if errs := Validate(cfg); len(errs) != 2 {
		t.Fatalf("Expected 2 errors, got %v", errs)
	}
}
