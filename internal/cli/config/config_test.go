package config

import (
	"os"
	"testing"

	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"

	"github.com/fyeah-lang/fyeah/pkg/fyeah"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoad(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.CacheSize != fyeah.DefaultCacheSize {
		t.Errorf("expected default cache size %d, got %d", fyeah.DefaultCacheSize, cfg.CacheSize)
	}
	if cfg.MaxLength != fyeah.DefaultMaxLength {
		t.Errorf("expected default max length %d, got %d", fyeah.DefaultMaxLength, cfg.MaxLength)
	}
	if cfg.MaxDepth != fyeah.DefaultMaxDepth {
		t.Errorf("expected default max depth %d, got %d", fyeah.DefaultMaxDepth, cfg.MaxDepth)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected default log level 'warn', got %s", cfg.LogLevel)
	}
	if cfg.LanguageTag() != language.Und {
		t.Errorf("expected undetermined locale, got %v", cfg.LanguageTag())
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	configContent := `
cache_size: 128
max_length: 4096
max_depth: 8
locale: de-DE
log_level: INFO
no_color: true
`
	if err := os.WriteFile("fyeah.yml", []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.CacheSize != 128 {
		t.Errorf("expected cache size 128, got %d", cfg.CacheSize)
	}
	if cfg.MaxLength != 4096 {
		t.Errorf("expected max length 4096, got %d", cfg.MaxLength)
	}
	if cfg.MaxDepth != 8 {
		t.Errorf("expected max depth 8, got %d", cfg.MaxDepth)
	}
	if !cfg.NoColor {
		t.Error("expected no_color to be true")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level to be normalized to 'info', got %s", cfg.LogLevel)
	}
	if cfg.LanguageTag() != language.MustParse("de-DE") {
		t.Errorf("expected de-DE, got %v", cfg.LanguageTag())
	}
}

func TestLoadWithEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FYEAH_MAX_DEPTH", "3")
	t.Setenv("FYEAH_CACHE_SIZE", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.MaxDepth != 3 {
		t.Errorf("expected max depth 3 from environment, got %d", cfg.MaxDepth)
	}
	if cfg.CacheSize != 10 {
		t.Errorf("expected cache size 10 from environment, got %d", cfg.CacheSize)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative cache", "cache_size: -1\n"},
		{"zero depth", "max_depth: 0\n"},
		{"zero length", "max_length: 0\n"},
		{"bad locale", "locale: not_a_locale!\n"},
		{"bad level", "log_level: loud\n"},
		{"bad yaml", "cache_size: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			if err := os.WriteFile("fyeah.yaml", []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(); err == nil {
				t.Error("expected an error for invalid config")
			}
		})
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := Default()
	cfg.Locale = "en"

	logger, err := cfg.Logger()
	if err != nil {
		t.Fatalf("expected logger, got %v", err)
	}

	engine := fyeah.NewEngine(cfg.EngineOptions(logger)...)
	out, err := engine.F("{n:n}", fyeah.Vars(map[string]interface{}{"n": 1234}))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if out != "1,234" {
		t.Errorf("expected '1,234', got %q", out)
	}
}

func TestLogger_Debug(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"

	logger, err := cfg.Logger()
	if err != nil {
		t.Fatalf("expected logger, got %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level to be enabled")
	}
}
