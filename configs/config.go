package configs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/i2y/scholarmcp/internal/adapter/inbound/scholartools"
	"github.com/i2y/scholarmcp/internal/adapter/outbound/github"
	"github.com/i2y/scholarmcp/internal/adapter/outbound/s2client"
	"github.com/i2y/scholarmcp/internal/domain"
	"github.com/i2y/scholarmcp/internal/telemetry"
	"github.com/i2y/scholarmcp/internal/usecase"
)

const (
	// EnvPrefix prefixes every environment variable except the API key,
	// e.g. SCHOLARMCP_LOG_LEVEL. The envconfig tags spell it out in full.
	EnvPrefix = "SCHOLARMCP_"

	// apiKeyEnv is the variable Semantic Scholar's own tooling reads.
	apiKeyEnv = "SEMANTIC_SCHOLAR_API_KEY"

	// DefaultConfigFile is read when present; its absence is not an error.
	DefaultConfigFile = "configs/scholarmcp.yaml"
)

// Transports the server can listen on.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// githubClient loads github:// config files.
var githubClient = github.NewClient()

// Config holds the final application configuration, merged from defaults, an
// optional YAML file and environment variables with the prefix "SCHOLARMCP_",
// in increasing precedence. Tags carry the full variable name and are
// processed without an envconfig prefix, so unprefixed variables such as a
// stray TRANSPORT are never read. The API key is the one exception: it comes
// from SEMANTIC_SCHOLAR_API_KEY, overridden by SCHOLARMCP_SEMANTIC_SCHOLAR_API_KEY.
type Config struct {
	// ConfigFilePath is the file the configuration was read from, or "" when
	// none was found.
	ConfigFilePath string `yaml:"-" envconfig:"SCHOLARMCP_CONFIG_FILE"`

	// Semantic Scholar API. An empty APIBaseURL uses the server declared in
	// the endpoint catalog.
	APIBaseURL     string            `yaml:"api_base_url" envconfig:"SCHOLARMCP_API_BASE_URL"`
	APIKey         domain.Credential `yaml:"-" envconfig:"SEMANTIC_SCHOLAR_API_KEY"`
	RequestTimeout time.Duration     `yaml:"request_timeout" envconfig:"SCHOLARMCP_REQUEST_TIMEOUT"`
	MaxAttempts    int               `yaml:"max_attempts" envconfig:"SCHOLARMCP_MAX_ATTEMPTS"`
	BackoffBase    time.Duration     `yaml:"backoff_base" envconfig:"SCHOLARMCP_BACKOFF_BASE"`
	BackoffMax     time.Duration     `yaml:"backoff_max" envconfig:"SCHOLARMCP_BACKOFF_MAX"`
	BackoffJitter  float64           `yaml:"backoff_jitter" envconfig:"SCHOLARMCP_BACKOFF_JITTER"`
	UserAgent      string            `yaml:"user_agent" envconfig:"SCHOLARMCP_USER_AGENT"`

	// Tools
	ResultFormat          string   `yaml:"result_format" envconfig:"SCHOLARMCP_RESULT_FORMAT"`
	Enrichment            bool     `yaml:"enrichment" envconfig:"SCHOLARMCP_ENRICHMENT"`
	EnrichmentConcurrency int      `yaml:"enrichment_concurrency" envconfig:"SCHOLARMCP_ENRICHMENT_CONCURRENCY"`
	DisabledTools         []string `yaml:"disabled_tools" envconfig:"SCHOLARMCP_DISABLED_TOOLS"`

	// Server
	Transport         string        `yaml:"transport" envconfig:"SCHOLARMCP_TRANSPORT"`
	ListenAddr        string        `yaml:"listen_addr" envconfig:"SCHOLARMCP_LISTEN_ADDR"`
	AdminAddr         string        `yaml:"admin_addr" envconfig:"SCHOLARMCP_ADMIN_ADDR"`
	PublicBaseURL     string        `yaml:"public_base_url" envconfig:"SCHOLARMCP_PUBLIC_BASE_URL"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" envconfig:"SCHOLARMCP_SHUTDOWN_TIMEOUT"`
	ServerReadTimeout time.Duration `yaml:"server_read_timeout" envconfig:"SCHOLARMCP_SERVER_READ_TIMEOUT"`
	ServerIdleTimeout time.Duration `yaml:"server_idle_timeout" envconfig:"SCHOLARMCP_SERVER_IDLE_TIMEOUT"`

	// Observability
	LogLevel                 string `yaml:"log_level" envconfig:"SCHOLARMCP_LOG_LEVEL"`
	LogFile                  string `yaml:"log_file" envconfig:"SCHOLARMCP_LOG_FILE"`
	MetricsEnabled           bool   `yaml:"metrics_enabled" envconfig:"SCHOLARMCP_METRICS_ENABLED"`
	OtelExporterOtlpEndpoint string `yaml:"otel_exporter_otlp_endpoint" envconfig:"SCHOLARMCP_OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool   `yaml:"otel_exporter_otlp_insecure" envconfig:"SCHOLARMCP_OTEL_EXPORTER_OTLP_INSECURE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RequestTimeout: s2client.DefaultTimeout,
		MaxAttempts:    s2client.DefaultMaxAttempts,
		BackoffBase:    s2client.DefaultBackoffBase,
		BackoffMax:     s2client.DefaultBackoffMax,
		BackoffJitter:  s2client.DefaultJitter,
		UserAgent:      s2client.DefaultUserAgent,

		ResultFormat:          string(usecase.FormatMarkdown),
		Enrichment:            true,
		EnrichmentConcurrency: scholartools.DefaultEnrichmentConcurrency,

		Transport:         TransportStdio,
		ListenAddr:        ":8080",
		AdminAddr:         ":8081",
		ShutdownTimeout:   5 * time.Second,
		ServerReadTimeout: 5 * time.Second,
		ServerIdleTimeout: 120 * time.Second,

		LogLevel:                 "info",
		MetricsEnabled:           true,
		OtelExporterOtlpInsecure: true,
	}
}

// Load builds the configuration. path, typically from the --config flag,
// takes precedence over SCHOLARMCP_CONFIG_FILE; both may name a local file or
// a github://owner/repo/path[@ref] reference. An explicitly named file must
// exist; the default one is optional.
func Load(ctx context.Context, path string) (*Config, error) {
	var env struct {
		ConfigFile string `envconfig:"SCHOLARMCP_CONFIG_FILE"`
	}
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to process initial environment variables: %w", err)
	}
	if path == "" {
		path = env.ConfigFile
	}
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	cfg := Default()
	data, err := readConfigFile(ctx, path)
	switch {
	case err == nil:
		if err := decodeYAML(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", path, err)
		}
	case !explicit && errors.Is(err, fs.ErrNotExist):
		path = ""
	default:
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	// Process environment variables again to allow overrides over file settings.
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}
	if key, ok := os.LookupEnv(EnvPrefix + apiKeyEnv); ok {
		cfg.APIKey = domain.Credential(key)
	}
	cfg.ConfigFilePath = path
	cfg.DisabledTools = trimAll(cfg.DisabledTools)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(ctx context.Context, path string) ([]byte, error) {
	if github.IsURL(path) {
		return githubClient.Fetch(ctx, path)
	}
	return os.ReadFile(path)
}

// decodeYAML rejects unknown keys so typos do not silently fall back to defaults.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func trimAll(names []string) []string {
	out := names[:0]
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains([]string{TransportStdio, TransportSSE, TransportHTTP}, c.Transport) {
		errs = append(errs, fmt.Errorf("transport must be one of stdio, sse, http; got %q", c.Transport))
	}
	if c.ResultFormat != string(usecase.FormatMarkdown) && c.ResultFormat != string(usecase.FormatJSON) {
		errs = append(errs, fmt.Errorf("result_format must be markdown or json; got %q", c.ResultFormat))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts must be at least 1; got %d", c.MaxAttempts))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive; got %s", c.RequestTimeout))
	}
	if c.BackoffBase <= 0 || c.BackoffMax < c.BackoffBase {
		errs = append(errs, fmt.Errorf("backoff_base must be positive and not exceed backoff_max; got %s and %s", c.BackoffBase, c.BackoffMax))
	}
	if c.BackoffJitter < 0 || c.BackoffJitter > 1 {
		errs = append(errs, fmt.Errorf("backoff_jitter must be within [0, 1]; got %v", c.BackoffJitter))
	}
	if c.EnrichmentConcurrency < 1 {
		errs = append(errs, fmt.Errorf("enrichment_concurrency must be at least 1; got %d", c.EnrichmentConcurrency))
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// ClientConfig returns the API client settings.
func (c *Config) ClientConfig() s2client.Config {
	return s2client.Config{
		BaseURL:     c.APIBaseURL,
		Timeout:     c.RequestTimeout,
		MaxAttempts: c.MaxAttempts,
		BackoffBase: c.BackoffBase,
		BackoffMax:  c.BackoffMax,
		Jitter:      c.BackoffJitter,
		UserAgent:   c.UserAgent,
	}
}

// ToolsConfig returns the tool table settings.
func (c *Config) ToolsConfig() scholartools.Config {
	return scholartools.Config{
		Enrichment:            c.Enrichment,
		EnrichmentConcurrency: c.EnrichmentConcurrency,
	}
}

// TelemetryConfig returns the OpenTelemetry provider settings.
func (c *Config) TelemetryConfig(serviceVersion string) telemetry.ProviderConfig {
	return telemetry.ProviderConfig{
		ServiceName:    "scholarmcp",
		ServiceVersion: serviceVersion,
		OTLPEndpoint:   c.OtelExporterOtlpEndpoint,
		OTLPInsecure:   c.OtelExporterOtlpInsecure,
	}
}
