package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/spf13/viper"
)

const (
	CaptureImages = "images"
	CaptureSlides = "slides"

	DefaultTarget = "advanced"
)

type Config struct {
	Browser BrowserConfig     `mapstructure:"browser"`
	Session SessionConfig     `mapstructure:"session"`
	OCR     OCRConfig         `mapstructure:"ocr"`
	Output  OutputConfig      `mapstructure:"output"`
	Capture CaptureConfig     `mapstructure:"capture"`
	Logger  LoggerConfig      `mapstructure:"logger"`
	Targets map[string]Target `mapstructure:"targets"`
}

type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless"`
	Debug          bool          `mapstructure:"debug"`
	GlobalTimeout  time.Duration `mapstructure:"global_timeout"` // Overall timeout
	ActionTimeout  time.Duration `mapstructure:"action_timeout"` // Timeout for individual actions
	SettleTimeout  time.Duration `mapstructure:"settle_timeout"` // Upper bound on waiting for a slide to re-render
	NavigationRate float64       `mapstructure:"navigation_rate"`
}

type SessionConfig struct {
	TokensFile string `mapstructure:"tokens_file"`
}

type OCRConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type OutputConfig struct {
	Root string `mapstructure:"root"`
}

type CaptureConfig struct {
	MaxSlides int `mapstructure:"max_slides"`
}

// LoggerConfig mirrors the zap/lumberjack knobs exposed to users.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	ServiceName string `mapstructure:"service_name"`
	LogFile     string `mapstructure:"log_file"`
	MaxSize     int    `mapstructure:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"`
	Compress    bool   `mapstructure:"compress"`
	AddSource   bool   `mapstructure:"add_source"`
}

// Target is the selector set and output layout for one crawlable catalog.
type Target struct {
	StartURL string `mapstructure:"start_url"`
	BaseURL  string `mapstructure:"base_url"`
	// OutputDir is relative to Output.Root unless absolute.
	OutputDir string `mapstructure:"output_dir"`

	// Courses is nil when the start page already lists lessons.
	Courses *Listing `mapstructure:"courses"`
	Lessons Listing  `mapstructure:"lessons"`

	Content ContentRules `mapstructure:"content"`
	Capture string       `mapstructure:"capture"`
	Slides  SlideRules   `mapstructure:"slides"`
}

type Listing struct {
	Container string        `mapstructure:"container"`
	Anchors   string        `mapstructure:"anchors"`
	Strip     string        `mapstructure:"strip"`
	FirstLine bool          `mapstructure:"first_line"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ContentRules struct {
	Selectors    []string `mapstructure:"selectors"`
	Nodes        string   `mapstructure:"nodes"`
	FallbackBody bool     `mapstructure:"fallback_body"`
}

type SlideRules struct {
	Canvas          string        `mapstructure:"canvas"`
	Next            string        `mapstructure:"next"`
	DisabledMarkers []string      `mapstructure:"disabled_markers"`
	Hide            []string      `mapstructure:"hide"`
	NextTimeout     time.Duration `mapstructure:"next_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.global_timeout", 3*time.Hour)
	v.SetDefault("browser.action_timeout", time.Minute)
	v.SetDefault("browser.settle_timeout", time.Second)
	v.SetDefault("browser.navigation_rate", 0)

	v.SetDefault("session.tokens_file", "cookies.json")

	v.SetDefault("ocr.enabled", true)
	v.SetDefault("ocr.credentials_file", "vision-api.json")

	v.SetDefault("output.root", ".")
	v.SetDefault("capture.max_slides", 200)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "lesson-extract")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
}

// Load reads the optional config file at path (or ./config.yaml), applies
// LESSON_EXTRACT_* environment overrides and merges user targets over the
// built-in ones.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("LESSON_EXTRACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The Vision SDK's own variable wins over the config file.
	_ = v.BindEnv("ocr.credentials_file", "LESSON_EXTRACT_OCR_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	targets, err := mergeTargets(DefaultTargets(), cfg.Targets)
	if err != nil {
		return nil, err
	}
	cfg.Targets = targets

	if cfg.OCR.CredentialsFile != "" {
		if abs, err := filepath.Abs(cfg.OCR.CredentialsFile); err == nil {
			cfg.OCR.CredentialsFile = abs
		}
	}

	return &cfg, nil
}

func mergeTargets(builtin, overrides map[string]Target) (map[string]Target, error) {
	out := make(map[string]Target, len(builtin)+len(overrides))
	for name, t := range builtin {
		out[name] = t
	}
	for name, o := range overrides {
		base := out[name]
		if err := mergo.Merge(&base, o, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge target %q: %w", name, err)
		}
		out[name] = base
	}
	return out, nil
}

// Target looks up a target by name.
func (c *Config) Target(name string) (Target, error) {
	t, ok := c.Targets[name]
	if !ok {
		return Target{}, fmt.Errorf("unknown target %q (known: %s)", name, strings.Join(c.TargetNames(), ", "))
	}
	return t, nil
}

func (c *Config) TargetNames() []string {
	names := make([]string, 0, len(c.Targets))
	for name := range c.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OutputDir resolves where a target's documents go.
func (c *Config) OutputDir(t Target) string {
	if filepath.IsAbs(t.OutputDir) {
		return t.OutputDir
	}
	return filepath.Join(c.Output.Root, t.OutputDir)
}
