package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"opendart/internal/corpcode"
	"opendart/internal/dart"
)

// Config is the runtime configuration. Sources apply in order: defaults,
// YAML file, environment, flags.
type Config struct {
	APIKey           string        `yaml:"-"`
	BaseURL          string        `yaml:"base_url"`
	Addr             string        `yaml:"addr"`
	CachePath        string        `yaml:"cache_path"`
	DataPath         string        `yaml:"data_path"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	DownloadTimeout  time.Duration `yaml:"download_timeout"`
	DownloadAttempts int           `yaml:"download_attempts"`
	DownloadDelay    time.Duration `yaml:"download_delay"`
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:          dart.DefaultBaseURL,
		Addr:             ":8081",
		CachePath:        corpcode.DefaultCachePath(),
		DataPath:         corpcode.DefaultDataPath(),
		RequestTimeout:   dart.DefaultTimeout,
		DownloadTimeout:  corpcode.DefaultAttemptTimeout,
		DownloadAttempts: corpcode.DefaultAttempts,
		DownloadDelay:    corpcode.DefaultRetryDelay,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load reads .env, then parses args. It returns the configuration and the
// positional arguments left after flags.
func Load(args []string) (*Config, []string, error) {
	_ = godotenv.Load()
	return Parse(args, os.LookupEnv)
}

type flagValues struct {
	configFile       string
	baseURL          string
	addr             string
	cachePath        string
	dataPath         string
	requestTimeout   time.Duration
	downloadTimeout  time.Duration
	downloadAttempts int
	downloadDelay    time.Duration
	logLevel         string
	logFormat        string
}

// Parse builds a Config from args and the environment seen through lookup.
func Parse(args []string, lookup func(string) (string, bool)) (*Config, []string, error) {
	def := Default()
	var fv flagValues
	fs := pflag.NewFlagSet("opendart", pflag.ContinueOnError)
	// Flags after the command belong to the command.
	fs.SetInterspersed(false)
	fs.StringVarP(&fv.configFile, "config", "c", "", "YAML config file (env OPENDART_CONFIG)")
	fs.StringVar(&fv.baseURL, "base-url", def.BaseURL, "DART OpenAPI base URL")
	fs.StringVar(&fv.addr, "addr", def.Addr, "HTTP listen address")
	fs.StringVar(&fv.cachePath, "cache-path", def.CachePath, "corp code cache file")
	fs.StringVar(&fv.dataPath, "data-path", def.DataPath, "project-local corp code file")
	fs.DurationVar(&fv.requestTimeout, "request-timeout", def.RequestTimeout, "timeout for JSON API calls")
	fs.DurationVar(&fv.downloadTimeout, "download-timeout", def.DownloadTimeout, "timeout per corp code download attempt")
	fs.IntVar(&fv.downloadAttempts, "download-attempts", def.DownloadAttempts, "corp code download attempts")
	fs.DurationVar(&fv.downloadDelay, "download-delay", def.DownloadDelay, "delay between download attempts")
	fs.StringVar(&fv.logLevel, "log-level", def.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&fv.logFormat, "log-format", def.LogFormat, "log format (text, json)")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg := def
	getenv := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if path := firstNonEmpty(fv.configFile, getenv("OPENDART_CONFIG")); path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, nil, err
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, nil, err
	}
	fv.apply(fs, &cfg)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return &cfg, fs.Args(), nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	c.APIKey = firstNonEmpty(getenv("DART_API_KEY"), getenv("OPENDART_API_KEY"), c.APIKey)
	c.BaseURL = firstNonEmpty(getenv("OPENDART_BASE_URL"), c.BaseURL)
	if port := getenv("PORT"); port != "" {
		if strings.HasPrefix(port, ":") {
			c.Addr = port
		} else {
			c.Addr = ":" + port
		}
	}
	c.Addr = firstNonEmpty(getenv("OPENDART_ADDR"), c.Addr)
	c.CachePath = firstNonEmpty(getenv("OPENDART_CACHE_PATH"), c.CachePath)
	c.DataPath = firstNonEmpty(getenv("OPENDART_DATA_PATH"), c.DataPath)
	c.LogLevel = firstNonEmpty(getenv("OPENDART_LOG_LEVEL"), c.LogLevel)
	c.LogFormat = firstNonEmpty(getenv("OPENDART_LOG_FORMAT"), c.LogFormat)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"OPENDART_REQUEST_TIMEOUT", &c.RequestTimeout},
		{"OPENDART_DOWNLOAD_TIMEOUT", &c.DownloadTimeout},
		{"OPENDART_DOWNLOAD_DELAY", &c.DownloadDelay},
	}
	for _, d := range durations {
		raw := getenv(d.key)
		if raw == "" {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", d.key, err)
		}
		*d.dst = v
	}
	if raw := getenv("OPENDART_DOWNLOAD_ATTEMPTS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("config: OPENDART_DOWNLOAD_ATTEMPTS: %w", err)
		}
		c.DownloadAttempts = n
	}
	return nil
}

func (fv *flagValues) apply(fs *pflag.FlagSet, c *Config) {
	if fs.Changed("base-url") {
		c.BaseURL = fv.baseURL
	}
	if fs.Changed("addr") {
		c.Addr = fv.addr
	}
	if fs.Changed("cache-path") {
		c.CachePath = fv.cachePath
	}
	if fs.Changed("data-path") {
		c.DataPath = fv.dataPath
	}
	if fs.Changed("request-timeout") {
		c.RequestTimeout = fv.requestTimeout
	}
	if fs.Changed("download-timeout") {
		c.DownloadTimeout = fv.downloadTimeout
	}
	if fs.Changed("download-attempts") {
		c.DownloadAttempts = fv.downloadAttempts
	}
	if fs.Changed("download-delay") {
		c.DownloadDelay = fv.downloadDelay
	}
	if fs.Changed("log-level") {
		c.LogLevel = fv.logLevel
	}
	if fs.Changed("log-format") {
		c.LogFormat = fv.logFormat
	}
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("base_url is empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.DownloadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("download_timeout must be positive, got %s", c.DownloadTimeout))
	}
	if c.DownloadAttempts < 1 {
		errs = append(errs, fmt.Errorf("download_attempts must be at least 1, got %d", c.DownloadAttempts))
	}
	if c.DownloadDelay <= 0 {
		errs = append(errs, fmt.Errorf("download_delay must be positive, got %s", c.DownloadDelay))
	}
	if strings.TrimSpace(c.CachePath) == "" && strings.TrimSpace(c.DataPath) == "" {
		errs = append(errs, errors.New("cache_path and data_path are both empty"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// CorpCodePaths lists the directory file locations in lookup order.
func (c *Config) CorpCodePaths() []string {
	return []string{c.CachePath, c.DataPath}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
