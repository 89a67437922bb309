package config

import (
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the loader
const EnvPrefix = "ATSCORE"

// Config holds all application configuration.
// Credential precedence, highest first:
// 1. Vault (if enabled)
// 2. Config file
// 3. Environment variables (ATSCORE_REMOTE_HTTP_APIKEY, ...)
// 4. Defaults (always empty for credentials)
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Enhance       EnhanceConfig       `mapstructure:"enhance"`
	Remote        RemoteConfig        `mapstructure:"remote"`
	Server        ServerConfig        `mapstructure:"server"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// Scoring providers
const (
	ProviderLocal  = "local"
	ProviderHTTP   = "http"
	ProviderGemini = "gemini"
)

// ScoringConfig selects and tunes the scoring engine
type ScoringConfig struct {
	Provider         string `mapstructure:"provider"`         // local, http or gemini
	Fallback         bool   `mapstructure:"fallback"`         // fall back to the local scorer when a remote provider fails
	TaggerPolicy     string `mapstructure:"taggerPolicy"`     // fail or degrade
	LexiconFile      string `mapstructure:"lexiconFile"`      // optional extra tagger lexicon
	BatchConcurrency int    `mapstructure:"batchConcurrency"` // parallel files in batch scoring
}

// EnhanceConfig tunes the enhancer
type EnhanceConfig struct {
	GuardReapplication bool `mapstructure:"guardReapplication"`
}

// RemoteConfig holds the remote scoring providers
type RemoteConfig struct {
	HTTP   HTTPProviderConfig   `mapstructure:"http"`
	Gemini GeminiProviderConfig `mapstructure:"gemini"`
}

// HTTPProviderConfig configures a commercial ATS scoring API
type HTTPProviderConfig struct {
	Name           string               `mapstructure:"name"`
	Endpoint       string               `mapstructure:"endpoint"`
	APIKey         string               `mapstructure:"apiKey"`
	AuthHeader     string               `mapstructure:"authHeader"` // e.g. Authorization, X-API-Key, apikey
	AuthScheme     string               `mapstructure:"authScheme"` // e.g. Bearer; empty sends the bare key
	Timeout        time.Duration        `mapstructure:"timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// GeminiProviderConfig configures the LLM-backed scorer
type GeminiProviderConfig struct {
	Model          string               `mapstructure:"model"`
	APIKey         string               `mapstructure:"apiKey"`
	Temperature    float32              `mapstructure:"temperature"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxRetries     int                  `mapstructure:"maxRetries"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string          `mapstructure:"host"`
	Port            string          `mapstructure:"port"`
	ReadTimeout     time.Duration   `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration   `mapstructure:"writeTimeout"`
	IdleTimeout     time.Duration   `mapstructure:"idleTimeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdownTimeout"`
	TLS             TLSConfig       `mapstructure:"tls"`
	APIKeys         []string        `mapstructure:"apiKeys"`
	RateLimit       RateLimitConfig `mapstructure:"rateLimit"`
	WatchConfig     bool            `mapstructure:"watchConfig"` // reload api keys and rate limits when the config file changes
}

// TLSConfig enables HTTPS with a certificate and key on disk
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	ConsoleOutput   bool             `mapstructure:"consoleOutput"`
	PrettyPrint     bool             `mapstructure:"prettyPrint"`
	SampleRate      float64          `mapstructure:"sampleRate"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// PrometheusConfig holds Prometheus configuration. An empty Port serves the
// endpoint from the API server itself.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// newViper builds a viper instance with defaults, env handling and search paths
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/atscore/")
	v.AddConfigPath("$HOME/.atscore")
	v.AddConfigPath(".")
	return v
}

// LoadConfig loads and validates configuration
func LoadConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Load reads configuration from .env, environment variables and a config file
// without validating it, so secrets from Vault can be applied first.
func Load() (*Config, error) {
	// a missing .env file is normal outside development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[CONFIG] Ignoring unreadable .env file: %v", err)
	}

	v := newViper()

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	config, err := decode(v)
	if err != nil {
		return nil, err
	}

	config.logConfigurationSources(configFileUsed)
	return config, nil
}

// decode unmarshals v and applies fallbacks
func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.applyFallbacks()
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Scoring.Provider {
	case ProviderLocal:
	case ProviderHTTP:
		if c.Remote.HTTP.Endpoint == "" {
			return fmt.Errorf("remote.http.endpoint is required for the http provider")
		}
		if c.Remote.HTTP.APIKey == "" {
			return fmt.Errorf("remote HTTP API key is required (set %s_REMOTE_HTTP_APIKEY or configure vault)", EnvPrefix)
		}
		if c.Remote.HTTP.Timeout <= 0 {
			return fmt.Errorf("remote HTTP timeout must be positive")
		}
	case ProviderGemini:
		if c.Remote.Gemini.APIKey == "" {
			return fmt.Errorf("gemini API key is required (set %s_REMOTE_GEMINI_APIKEY or configure vault)", EnvPrefix)
		}
		if c.Remote.Gemini.Timeout <= 0 {
			return fmt.Errorf("gemini timeout must be positive")
		}
	default:
		return fmt.Errorf("invalid scoring provider: %s (must be 'local', 'http' or 'gemini')", c.Scoring.Provider)
	}

	switch c.Scoring.TaggerPolicy {
	case "fail", "degrade":
	default:
		return fmt.Errorf("invalid tagger policy: %s (must be 'fail' or 'degrade')", c.Scoring.TaggerPolicy)
	}

	if c.Scoring.BatchConcurrency < 1 {
		return fmt.Errorf("scoring.batchConcurrency must be at least 1")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("TLS certificate and key files are required when TLS is enabled")
	}

	if len(c.App.SupportedFormats) > 0 && !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	return nil
}

// applyFallbacks fills derived values after unmarshaling
func (c *Config) applyFallbacks() {
	// comma separated keys from the environment
	c.Server.APIKeys = splitAndTrim(strings.Join(c.Server.APIKeys, ","))
	if len(c.Server.APIKeys) == 0 {
		if env := os.Getenv(EnvPrefix + "_SERVER_APIKEYS"); env != "" {
			c.Server.APIKeys = splitAndTrim(env)
		}
	}

	if c.Remote.HTTP.Name == "" {
		c.Remote.HTTP.Name = "Remote ATS"
	}

	if c.Observability.ServiceInstance == "" {
		if hostname, err := os.Hostname(); err == nil {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-%s", c.Observability.ServiceName, hostname)
		} else {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-1", c.Observability.ServiceName)
		}
	}

	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MaskSecret hides all but the edges of a credential
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "****" + s[len(s)-4:]
	default:
		return "****"
	}
}

func configured(s string) string {
	if s == "" {
		return "***NOT SET***"
	}
	return "***CONFIGURED***"
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	for _, env := range os.Environ() {
		name, value, _ := strings.Cut(env, "=")
		if !strings.HasPrefix(name, EnvPrefix+"_") {
			continue
		}
		lower := strings.ToLower(name)
		if strings.Contains(lower, "key") || strings.Contains(lower, "token") {
			value = "***MASKED***"
		}
		log.Printf("[CONFIG]   %s=%s", name, value)
	}

	log.Printf("[CONFIG] Scoring provider: %s (fallback: %t, tagger policy: %s)",
		c.Scoring.Provider, c.Scoring.Fallback, c.Scoring.TaggerPolicy)
	log.Printf("[CONFIG] Remote HTTP: %s endpoint=%q key=%s", c.Remote.HTTP.Name, c.Remote.HTTP.Endpoint, configured(c.Remote.HTTP.APIKey))
	log.Printf("[CONFIG] Remote Gemini: model=%s key=%s", c.Remote.Gemini.Model, configured(c.Remote.Gemini.APIKey))
	log.Printf("[CONFIG] Server: %s:%s (tls: %t, api keys: %d)", c.Server.Host, c.Server.Port, c.Server.TLS.Enabled, len(c.Server.APIKeys))
	log.Printf("[CONFIG] Log level: %s, vault: %t, observability: %t", c.App.LogLevel, c.Vault.Enabled, c.Observability.Enabled)
}
