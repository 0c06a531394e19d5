package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"

	"github.com/fyeah-lang/fyeah/pkg/fyeah"
)

// Config represents the fyeah CLI configuration
type Config struct {
	CacheSize int    `mapstructure:"cache_size"`
	MaxLength int    `mapstructure:"max_length"`
	MaxDepth  int    `mapstructure:"max_depth"`
	Locale    string `mapstructure:"locale"`
	LogLevel  string `mapstructure:"log_level"`
	NoColor   bool   `mapstructure:"no_color"`
}

// Load loads the configuration from fyeah.yml or fyeah.yaml in the current
// directory. FYEAH_* environment variables override file values.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("cache_size", fyeah.DefaultCacheSize)
	v.SetDefault("max_length", fyeah.DefaultMaxLength)
	v.SetDefault("max_depth", fyeah.DefaultMaxDepth)
	v.SetDefault("locale", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("no_color", false)

	v.SetConfigName("fyeah")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FYEAH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns the configuration used when nothing is configured
func Default() *Config {
	return &Config{
		CacheSize: fyeah.DefaultCacheSize,
		MaxLength: fyeah.DefaultMaxLength,
		MaxDepth:  fyeah.DefaultMaxDepth,
		LogLevel:  "warn",
	}
}

// LanguageTag returns the configured locale, language.Und when unset
func (c *Config) LanguageTag() language.Tag {
	if c.Locale == "" {
		return language.Und
	}
	// validated by Load
	return language.Make(c.Locale)
}

// Logger builds the CLI logger. Debug level gets the development encoder.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	if level == zapcore.DebugLevel {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// EngineOptions maps the configuration onto engine options
func (c *Config) EngineOptions(logger *zap.Logger) []fyeah.Option {
	return []fyeah.Option{
		fyeah.WithCacheSize(c.CacheSize),
		fyeah.WithMaxLength(c.MaxLength),
		fyeah.WithMaxDepth(c.MaxDepth),
		fyeah.WithLocale(c.LanguageTag()),
		fyeah.WithLogger(logger),
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.MaxLength < 1 || cfg.MaxLength > fyeah.DefaultMaxLength {
		return fmt.Errorf("max_length must be between 1 and %d, got: %d", fyeah.DefaultMaxLength, cfg.MaxLength)
	}
	if cfg.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be positive, got: %d", cfg.MaxDepth)
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got: %d", cfg.CacheSize)
	}
	if cfg.Locale != "" {
		if _, err := language.Parse(cfg.Locale); err != nil {
			return fmt.Errorf("locale %q is not a BCP 47 tag: %w", cfg.Locale, err)
		}
	}
	if _, err := zapcore.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got: %s", cfg.LogLevel)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	return nil
}
