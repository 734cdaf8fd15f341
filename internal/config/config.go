// Package config loads agentrank settings from defaults, an optional YAML
// file, AGENTRANK_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/FranksOps/agentrank/internal/fingerprint"
	"github.com/FranksOps/agentrank/internal/ranking"
	"github.com/FranksOps/agentrank/internal/report"
	"github.com/FranksOps/agentrank/internal/serp"
	"github.com/FranksOps/agentrank/pkg/useragent"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	AppName        = "agentrank"
	EnvPrefix      = "AGENTRANK"
	ConfigFileName = "agentrank"

	DefaultTop          = 5
	DefaultResults      = 50
	DefaultProvider     = serp.ProviderGoogle
	DefaultKeyMode      = string(ranking.KeyByURL)
	DefaultConcurrency  = 1
	DefaultRPS          = 0.5
	DefaultJitter       = 0.2
	DefaultTimeout      = 15 * time.Second
	DefaultRetries      = 3
	DefaultRetryBackoff = 300 * time.Millisecond
	DefaultFingerprint  = string(fingerprint.ProfileChrome)
	DefaultFormat       = string(report.FormatText)
	DefaultLogLevel     = "info"
)

// Config is the complete runtime configuration.
type Config struct {
	Search  SearchConfig  `mapstructure:"search"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Output  OutputConfig  `mapstructure:"output"`
	Export  ExportConfig  `mapstructure:"export"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// SearchConfig controls query generation, searching and ranking.
type SearchConfig struct {
	Provider    string   `mapstructure:"provider"`
	Top         int      `mapstructure:"top"`
	Results     int      `mapstructure:"results"`
	Templates   []string `mapstructure:"templates"`
	Concurrency int      `mapstructure:"concurrency"`
	MissPenalty int      `mapstructure:"miss_penalty"`
	// PenalizeMisses charges results+1 per missed query when MissPenalty is zero.
	PenalizeMisses bool   `mapstructure:"penalize_misses"`
	Key            string `mapstructure:"key"`
	Verify         bool   `mapstructure:"verify"`
	// Deny adds patterns to the built-in denylist.
	Deny []string `mapstructure:"deny"`
	// NoDefaultDeny drops the built-in denylist, keeping only Deny.
	NoDefaultDeny bool `mapstructure:"no_default_deny"`
	// Fixture replaces the live provider with a YAML fixture file.
	Fixture string `mapstructure:"fixture"`
}

// HTTPConfig controls how pages are fetched.
type HTTPConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	Retries         int           `mapstructure:"retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	RPS             float64       `mapstructure:"rps"`
	Jitter          float64       `mapstructure:"jitter"`
	Fingerprint     string        `mapstructure:"fingerprint"`
	UserAgents      []string      `mapstructure:"user_agents"`
	UserAgentPolicy string        `mapstructure:"user_agent_strategy"`
	ProxyFile       string        `mapstructure:"proxy_file"`
	Proxies         []string      `mapstructure:"proxies"`
	RespectRobots   bool          `mapstructure:"respect_robots"`
	CookieJar       bool          `mapstructure:"cookie_jar"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	// File receives the report instead of stdout when set.
	File string `mapstructure:"file"`
}

// ExportConfig names the write-only sinks each report is saved to.
type ExportConfig struct {
	CSV      string `mapstructure:"csv"`
	JSON     string `mapstructure:"json"`
	SQLite   string `mapstructure:"sqlite"`
	Postgres string `mapstructure:"postgres"`
}

// Enabled reports whether any export sink is configured.
func (e ExportConfig) Enabled() bool {
	return e.CSV != "" || e.JSON != "" || e.SQLite != "" || e.Postgres != ""
}

// LogConfig controls logging. File enables rotating file output.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}
	return level, nil
}

// MetricsConfig controls the Prometheus endpoint. Port zero disables it.
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"top":             "search.top",
	"results":         "search.results",
	"provider":        "search.provider",
	"template":        "search.templates",
	"concurrency":     "search.concurrency",
	"penalty":         "search.miss_penalty",
	"penalize":        "search.penalize_misses",
	"key":             "search.key",
	"verify":          "search.verify",
	"deny":            "search.deny",
	"no-default-deny": "search.no_default_deny",
	"fixture":         "search.fixture",
	"timeout":         "http.timeout",
	"retries":         "http.retries",
	"rps":             "http.rps",
	"fingerprint":     "http.fingerprint",
	"proxy-file":      "http.proxy_file",
	"robots":          "http.respect_robots",
	"format":          "output.format",
	"output":          "output.file",
	"csv":             "export.csv",
	"json-out":        "export.json",
	"sqlite":          "export.sqlite",
	"postgres":        "export.postgres",
	"metrics-port":    "metrics.port",
	"log-level":       "log.level",
	"log-file":        "log.file",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.provider", DefaultProvider)
	v.SetDefault("search.top", DefaultTop)
	v.SetDefault("search.results", DefaultResults)
	v.SetDefault("search.templates", []string{})
	v.SetDefault("search.concurrency", DefaultConcurrency)
	v.SetDefault("search.miss_penalty", 0)
	v.SetDefault("search.penalize_misses", false)
	v.SetDefault("search.key", DefaultKeyMode)
	v.SetDefault("search.verify", false)
	v.SetDefault("search.deny", []string{})
	v.SetDefault("search.no_default_deny", false)
	v.SetDefault("search.fixture", "")

	v.SetDefault("http.timeout", DefaultTimeout)
	v.SetDefault("http.retries", DefaultRetries)
	v.SetDefault("http.retry_backoff", DefaultRetryBackoff)
	v.SetDefault("http.rps", DefaultRPS)
	v.SetDefault("http.jitter", DefaultJitter)
	v.SetDefault("http.fingerprint", DefaultFingerprint)
	v.SetDefault("http.user_agents", []string{})
	v.SetDefault("http.user_agent_strategy", string(useragent.Sequential))
	v.SetDefault("http.proxy_file", "")
	v.SetDefault("http.proxies", []string{})
	v.SetDefault("http.respect_robots", true)
	v.SetDefault("http.cookie_jar", true)

	v.SetDefault("output.format", DefaultFormat)
	v.SetDefault("output.file", "")

	v.SetDefault("export.csv", "")
	v.SetDefault("export.json", "")
	v.SetDefault("export.sqlite", "")
	v.SetDefault("export.postgres", "")

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)

	v.SetDefault("metrics.port", 0)
}

// Load builds the configuration. An explicit path must exist; otherwise
// agentrank.yaml is looked up in the working directory and ~/.agentrank and
// is optional. Flags in fs that appear in FlagKeys override everything else
// when set on the command line.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range FlagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if fs != nil {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "."+AppName))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks every enumerated and numeric setting. Top and Results are
// not checked: values of zero or below yield an empty report.
func (c *Config) Validate() error {
	if c.Search.Fixture == "" && !validProvider(c.Search.Provider) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidProvider, c.Search.Provider, strings.Join(serp.Names(), ", "))
	}
	if _, err := report.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidFormat, c.Output.Format, strings.Join(report.Formats(), ", "))
	}
	if _, err := ranking.ParseKeyMode(c.Search.Key); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidKeyMode, c.Search.Key)
	}
	if _, err := fingerprint.ParseProfile(c.HTTP.Fingerprint); err != nil {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidFingerprint, c.HTTP.Fingerprint, strings.Join(fingerprint.Profiles(), ", "))
	}
	if _, err := useragent.ParseStrategy(c.HTTP.UserAgentPolicy); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidUserAgentStrategy, c.HTTP.UserAgentPolicy)
	}
	for _, t := range c.Search.Templates {
		if !strings.Contains(t, ranking.AreaPlaceholder) {
			return fmt.Errorf("%w: %q", ErrInvalidTemplate, t)
		}
	}
	if c.HTTP.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if c.Search.Concurrency < 0 {
		return ErrInvalidConcurrency
	}
	if c.Search.MissPenalty < 0 {
		return ErrInvalidPenalty
	}
	if c.HTTP.RPS < 0 || c.HTTP.Jitter < 0 || c.HTTP.Jitter > 1 {
		return ErrInvalidRate
	}
	if c.HTTP.Retries < 0 {
		return ErrInvalidRetries
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidMetricsPort, c.Metrics.Port)
	}
	return nil
}

func validProvider(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	return name == "" || name == "ddg" || slices.Contains(serp.Names(), name)
}

// MissPenalty is the per-miss charge used when scoring. PenalizeMisses
// reproduces the classic scoring where a miss costs one more than the
// deepest possible rank.
func (c *Config) MissPenalty() int {
	if c.Search.MissPenalty == 0 && c.Search.PenalizeMisses {
		return c.Search.Results + 1
	}
	return c.Search.MissPenalty
}
