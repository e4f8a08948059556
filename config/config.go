package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/nomis52/goexample/clone"
	"github.com/nomis52/goexample/logging"
	"github.com/nomis52/goexample/report"
	"gopkg.in/yaml.v3"
)

const (
	// Default monitoring settings
	defaultMetricsPrefix = "goexample"
	defaultJobName       = "goexample"
	defaultPushTimeout   = 30 * time.Second

	// Default server settings
	defaultListenAddress = ":9102"
	defaultHistorySize   = 50

	// Default report settings
	defaultReportFormat = report.FormatText
	defaultColorMode    = ColorAuto
)

// Colour modes for text reports.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var validColorModes = []string{ColorAuto, ColorAlways, ColorNever}

// Config represents the complete application configuration
type Config struct {
	Logging    logging.Config   `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Server     ServerConfig     `yaml:"server"`
	Runner     RunnerConfig     `yaml:"runner"`
	Report     ReportConfig     `yaml:"report"`

	// Schedule re-runs suites periodically, for example
	// "MoneyExample,DiamondExample:0 2 * * *;BrokenChainExample:@hourly".
	// Empty runs the selected suites once.
	Schedule string `yaml:"schedule"`

	// Suites selects suites by name. Empty selects every bundled suite.
	Suites []string `yaml:"suites"`
}

// MonitoringConfig holds metrics and monitoring settings
type MonitoringConfig struct {
	// VictoriaMetricsURL enables pushing metrics after one-shot runs.
	VictoriaMetricsURL string        `yaml:"victoriametrics_url"`
	MetricsPrefix      string        `yaml:"metrics_prefix"`
	JobName            string        `yaml:"jobname"`
	Instance           string        `yaml:"instance"`
	PushTimeout        time.Duration `yaml:"push_timeout"`
}

// ServerConfig holds the HTTP listener used while a schedule is running.
type ServerConfig struct {
	// ListenAddress serves /metrics and the run API.
	ListenAddress string `yaml:"listen_address"`
	// TLSCertFile and TLSKeyFile enable HTTPS. The pair is reloaded when
	// either file changes on disk.
	TLSCertFile string `yaml:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file"`
	// HistorySize bounds the number of finished runs kept in memory.
	HistorySize int `yaml:"history_size"`
}

// RunnerConfig controls example execution.
type RunnerConfig struct {
	// CloneStrategy is one of deep, fast or shared. Empty uses a value's
	// own Clone method when it has one and a deep copy otherwise.
	CloneStrategy string `yaml:"clone_strategy"`
	// CaptureLogs attaches each example's log lines to its report entry.
	CaptureLogs bool `yaml:"capture_logs"`
}

// ReportConfig controls how reports are written.
type ReportConfig struct {
	// Format is one of text, yaml or json.
	Format string `yaml:"format"`
	// Output is a file path. Empty or "-" writes to stdout.
	Output string `yaml:"output"`
	// Color is auto, always or never. It affects the text format only.
	Color string `yaml:"color"`
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if _, err := clone.Lookup(c.Runner.CloneStrategy); err != nil {
		return fmt.Errorf("runner: %w", err)
	}
	if c.Report.Format != "" && !slices.Contains(report.Formats(), c.Report.Format) {
		return fmt.Errorf("report: format must be one of: %s", strings.Join(report.Formats(), ", "))
	}
	if c.Report.Color != "" && !slices.Contains(validColorModes, c.Report.Color) {
		return fmt.Errorf("report: color must be one of: %s", strings.Join(validColorModes, ", "))
	}
	if c.Monitoring.PushTimeout < 0 {
		return errors.New("monitoring: push timeout must not be negative")
	}
	if strings.TrimSpace(c.Schedule) != "" && c.Server.ListenAddress == "" {
		return errors.New("server: listen address is required when a schedule is set")
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return errors.New("server: tls_cert_file and tls_key_file must be set together")
	}
	if c.Server.HistorySize < 0 {
		return errors.New("server: history size must not be negative")
	}
	seen := make(map[string]bool, len(c.Suites))
	for _, name := range c.Suites {
		if name == "" {
			return errors.New("suites: names must not be empty")
		}
		if seen[name] {
			return fmt.Errorf("suites: %q listed twice", name)
		}
		seen[name] = true
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	c.Logging.SetDefaults()

	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	if c.Monitoring.PushTimeout == 0 {
		c.Monitoring.PushTimeout = defaultPushTimeout
	}
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = defaultListenAddress
	}
	if c.Server.HistorySize == 0 {
		c.Server.HistorySize = defaultHistorySize
	}
	if c.Report.Format == "" {
		c.Report.Format = defaultReportFormat
	}
	if c.Report.Color == "" {
		c.Report.Color = defaultColorMode
	}
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

// Redacted returns a copy of the configuration that is safe to expose over
// HTTP. Passwords embedded in the push URL are masked.
func (c *Config) Redacted() Config {
	out := *c
	out.Suites = slices.Clone(c.Suites)
	if u, err := url.Parse(c.Monitoring.VictoriaMetricsURL); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
			out.Monitoring.VictoriaMetricsURL = u.String()
		}
	}
	return out
}

// CloneStrategy resolves the configured clone strategy. Nil selects the
// runner's default dispatch.
func (c *Config) CloneStrategy() clone.Strategy {
	strategy, _ := clone.Lookup(c.Runner.CloneStrategy)
	return strategy
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
