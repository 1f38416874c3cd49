package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the digesto configuration.
type Config struct {
	Input       InputConfig       `yaml:"input"`
	Segment     SegmentConfig     `yaml:"segment"`
	Output      OutputConfig      `yaml:"output"`
	Translation TranslationConfig `yaml:"translation"`
	Cache       CacheConfig       `yaml:"cache"`
	Inspect     InspectConfig     `yaml:"inspect"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// InputConfig describes the corpus file.
type InputConfig struct {
	Path     string `yaml:"path"`
	Encoding string `yaml:"encoding"` // auto, utf-8, utf-8-sig, utf-16, utf-16-le, utf-16-be, latin-1, cp1252
}

// SegmentConfig holds citation segmentation settings.
type SegmentConfig struct {
	Mode             string `yaml:"mode"` // delimiter | lines
	Pattern          string `yaml:"pattern"`
	LinePattern      string `yaml:"line_pattern"`
	MaxLength        int    `yaml:"max_length"` // runes, lines mode only
	TruncationMarker string `yaml:"truncation_marker"`
}

// OutputConfig describes the output document.
type OutputConfig struct {
	Path           string `yaml:"path"`
	TranslatedPath string `yaml:"translated_path"`
	Format         string `yaml:"format"` // fragments | texts
}

// TranslationConfig holds translation pass and provider settings.
type TranslationConfig struct {
	Provider      string `yaml:"provider"` // openai | gemini
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	Model         string `yaml:"model"`
	SourceLang    string `yaml:"source_lang"`
	TargetLang    string `yaml:"target_lang"`
	DelayMS       int    `yaml:"delay_ms"`    // 0 = default 500ms, negative = no delay
	TimeoutSec    int    `yaml:"timeout_sec"` // 0 = no per-call timeout
	FailureMarker string `yaml:"failure_marker"`
}

// CacheConfig holds translation cache settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLHours         int      `yaml:"ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// InspectConfig holds byte inspector settings.
type InspectConfig struct {
	Bytes     int      `yaml:"bytes"`
	Encodings []string `yaml:"encodings"`
}

// MetricsConfig holds the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

// Default values.
const (
	DefaultInputPath        = "digesto.txt"
	DefaultOutputPath       = "digesto_completo.json"
	DefaultTranslatedPath   = "digesto_traducido_final.json"
	DefaultPattern          = `Dig\.\d+\.\d+\.\d+\.?\d*`
	DefaultLinePattern      = `^\s*(?:dig|d)\.\s*\d+(?:\.\d+)*\.?`
	DefaultMaxLength        = 2000
	DefaultTruncationMarker = " [...]"
	DefaultFailureMarker    = "[TRADUCCIÓN FALLIDA]"
	DefaultInspectBytes     = 300
)

// DefaultInspectEncodings is the candidate list tried by the byte inspector.
var DefaultInspectEncodings = []string{"utf-8", "utf-8-sig", "utf-16", "utf-16-le", "latin-1", "cp1252"}

// Load reads configuration. An explicit path must exist; otherwise config/<env>.yaml
// is used when present and defaults apply when it is not.
func Load(path, env string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = findConfigPath(env)
	}

	var cfg Config
	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		// Substitute env variables of the form ${VAR}
		data = expandEnvVars(data)
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	case !explicit && errors.Is(err, fs.ErrNotExist):
		// no config file: defaults only
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Input.Path == "" {
		c.Input.Path = DefaultInputPath
	}
	if c.Input.Encoding == "" {
		c.Input.Encoding = "auto"
	}
	if c.Segment.Mode == "" {
		c.Segment.Mode = "delimiter"
	}
	if c.Segment.Pattern == "" {
		c.Segment.Pattern = DefaultPattern
	}
	if c.Segment.LinePattern == "" {
		c.Segment.LinePattern = DefaultLinePattern
	}
	if c.Segment.MaxLength <= 0 {
		c.Segment.MaxLength = DefaultMaxLength
	}
	if c.Segment.TruncationMarker == "" {
		c.Segment.TruncationMarker = DefaultTruncationMarker
	}
	if c.Output.Path == "" {
		c.Output.Path = DefaultOutputPath
	}
	if c.Output.TranslatedPath == "" {
		c.Output.TranslatedPath = DefaultTranslatedPath
	}
	if c.Output.Format == "" {
		c.Output.Format = "fragments"
	}
	if c.Translation.Provider == "" {
		c.Translation.Provider = "openai"
	}
	if c.Translation.Model == "" {
		c.Translation.Model = DefaultModel(c.Translation.Provider)
	}
	if c.Translation.SourceLang == "" {
		c.Translation.SourceLang = "la"
	}
	if c.Translation.TargetLang == "" {
		c.Translation.TargetLang = "es"
	}
	if c.Translation.DelayMS == 0 {
		c.Translation.DelayMS = 500
	}
	if c.Translation.FailureMarker == "" {
		c.Translation.FailureMarker = DefaultFailureMarker
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24 * 30
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 5
	}
	if c.Inspect.Bytes <= 0 {
		c.Inspect.Bytes = DefaultInspectBytes
	}
	if len(c.Inspect.Encodings) == 0 {
		c.Inspect.Encodings = append([]string(nil), DefaultInspectEncodings...)
	}
}

// Delay returns the fixed pause inserted after each translation call.
func (t TranslationConfig) Delay() time.Duration {
	if t.DelayMS <= 0 {
		return 0
	}
	return time.Duration(t.DelayMS) * time.Millisecond
}

// Timeout returns the per-call translation timeout, 0 when unbounded.
func (t TranslationConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSec) * time.Second
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// DefaultModel returns the model used when translation.model is empty.
func DefaultModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-2.0-flash"
	default:
		return "gpt-4o-mini"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Segment.Mode {
	case "delimiter", "lines":
	default:
		return fmt.Errorf("segment.mode must be \"delimiter\" or \"lines\", got %q", c.Segment.Mode)
	}
	switch c.Output.Format {
	case "fragments", "texts":
	default:
		return fmt.Errorf("output.format must be \"fragments\" or \"texts\", got %q", c.Output.Format)
	}
	switch c.Translation.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("translation.provider must be \"openai\" or \"gemini\", got %q", c.Translation.Provider)
	}
	if c.Translation.TimeoutSec < 0 {
		return fmt.Errorf("translation.timeout_sec must be >= 0, got %d", c.Translation.TimeoutSec)
	}
	if c.Inspect.Bytes <= 0 {
		return fmt.Errorf("inspect.bytes must be > 0, got %d", c.Inspect.Bytes)
	}
	if c.Segment.MaxLength <= 0 {
		return fmt.Errorf("segment.max_length must be > 0, got %d", c.Segment.MaxLength)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache is enabled")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
