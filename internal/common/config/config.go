// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Tenants  TenantConfig   `mapstructure:"tenants"`
	CDN      CDNConfig      `mapstructure:"cdn"`
	I18n     I18nConfig     `mapstructure:"i18n"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Events   EventsConfig   `mapstructure:"events"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Camunda  CamundaConfig  `mapstructure:"camunda"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port         int     `mapstructure:"port"`
	MetricsPort  int     `mapstructure:"metrics_port"`
	ReadTimeout  int     `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int     `mapstructure:"write_timeout"` // milliseconds
	RateLimit    float64 `mapstructure:"rate_limit"`    // submissions per second per client IP
	RateBurst    int     `mapstructure:"rate_burst"`
	TrustProxy   bool    `mapstructure:"trust_proxy"` // take the client IP from X-Forwarded-For/X-Real-IP
}

// TenantConfig names the tenant used when the URL carries none, and the
// tenant whose theme acts as the global fallback.
type TenantConfig struct {
	Default string `mapstructure:"default"`
	Global  string `mapstructure:"global"`
}

type CDNConfig struct {
	ThemeBaseURL string `mapstructure:"theme_base_url"`
	AssetBaseURL string `mapstructure:"asset_base_url"`
	Timeout      int    `mapstructure:"timeout"`   // milliseconds
	CacheTTL     int    `mapstructure:"cache_ttl"` // seconds, 0 disables caching
}

type I18nConfig struct {
	DefaultLanguage    string   `mapstructure:"default_language"`
	SupportedLanguages []string `mapstructure:"supported_languages"`
	CookieName         string   `mapstructure:"cookie_name"`
}

type UploadConfig struct {
	MaxFileSize       int64    `mapstructure:"max_file_size"` // bytes
	AllowedTypes      []string `mapstructure:"allowed_types"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	KeyPrefix         string   `mapstructure:"key_prefix"`
}

type UpstreamConfig struct {
	RunsAPIURL string `mapstructure:"runs_api_url"`
	APIKey     string `mapstructure:"api_key"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
}

// EventsConfig covers both the publisher inside the apply server and the
// event bus settings used by the publish function.
type EventsConfig struct {
	PublishURL string `mapstructure:"publish_url"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	Env        string `mapstructure:"env"`
	BusName    string `mapstructure:"bus_name"`
	Source     string `mapstructure:"source"`
	DetailType string `mapstructure:"detail_type"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
	Bucket string `mapstructure:"bucket"`
	SNS    struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	SES struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"ses"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MessageName    string `mapstructure:"message_name"`
	MessageTTL     int    `mapstructure:"message_ttl"`     // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Enabled reports whether a ledger database is configured at all.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
