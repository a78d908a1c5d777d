// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Profile selects which fields validateConfig insists on.
type Profile int

const (
	ProfileApplyServer Profile = iota
	ProfilePublishFunction
)

var (
	DefaultAllowedTypes = []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	DefaultAllowedExtensions = []string{".pdf", ".doc", ".docx"}
)

func Load(profile Profile) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// APP_ENVIRONMENT, UPSTREAM_RUNS_API_URL, AWS_BUCKET ...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v, profile)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string, profile Profile) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v, profile)
}

func finish(v *viper.Viper, profile Profile) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg, profile); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig honours the env names the hosting platform injects,
// which do not follow the dotted key layout.
func overrideEmptyConfig(cfg *Config) {
	if val := os.Getenv("RUNS_API_URL"); val != "" {
		cfg.Upstream.RunsAPIURL = val
	}
	if cfg.Events.PublishURL == "" {
		cfg.Events.PublishURL = os.Getenv("PUBLISH_APPLY_EVENT_URL")
	}
	if cfg.AWS.Bucket == "" {
		cfg.AWS.Bucket = os.Getenv("S3_BUCKET_NAME")
	}
	if cfg.Events.BusName == "" {
		cfg.Events.BusName = fmt.Sprintf("sm-%s-app-apply-eventbus", cfg.Events.Env)
	}
	if cfg.Events.Source == "" {
		cfg.Events.Source = fmt.Sprintf("sm:%s:app", cfg.Events.Env)
	}
	if cfg.AWS.Bucket == "" && cfg.Events.Env != "" {
		cfg.AWS.Bucket = fmt.Sprintf("sm-%s-app-apply-bucket", cfg.Events.Env)
	}
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "apply-portal"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 0.2
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 5
	}

	if cfg.Tenants.Default == "" {
		cfg.Tenants.Default = "default"
	}
	if cfg.Tenants.Global == "" {
		cfg.Tenants.Global = "smartytalent"
	}

	if cfg.CDN.ThemeBaseURL == "" {
		cfg.CDN.ThemeBaseURL = "https://cdn.smartytalent.eu"
	}
	if cfg.CDN.AssetBaseURL == "" {
		cfg.CDN.AssetBaseURL = "https://cdn.test-smartytalent.eu"
	}
	if cfg.CDN.Timeout == 0 {
		cfg.CDN.Timeout = 5000
	}

	if cfg.I18n.DefaultLanguage == "" {
		cfg.I18n.DefaultLanguage = "en"
	}
	if len(cfg.I18n.SupportedLanguages) == 0 {
		cfg.I18n.SupportedLanguages = []string{"en", "pl"}
	}
	if cfg.I18n.CookieName == "" {
		cfg.I18n.CookieName = "st_lang"
	}

	if cfg.Upload.MaxFileSize == 0 {
		cfg.Upload.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.Upload.AllowedTypes) == 0 {
		cfg.Upload.AllowedTypes = DefaultAllowedTypes
	}
	if len(cfg.Upload.AllowedExtensions) == 0 {
		cfg.Upload.AllowedExtensions = DefaultAllowedExtensions
	}

	if cfg.Upstream.RunsAPIURL == "" {
		cfg.Upstream.RunsAPIURL = "https://api.test.smartytalent.eu/v1/runs"
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 15000
	}

	if cfg.Events.Timeout == 0 {
		cfg.Events.Timeout = 10000
	}
	if cfg.Events.Env == "" {
		cfg.Events.Env = os.Getenv("SM_ENV")
	}
	if cfg.Events.Env == "" {
		cfg.Events.Env = "dev"
	}
	if cfg.Events.DetailType == "" {
		cfg.Events.DetailType = "apply:file:uploaded"
	}

	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "eu-central-1"
	}

	if cfg.Camunda.MessageName == "" {
		cfg.Camunda.MessageName = "apply-file-uploaded"
	}
	if cfg.Camunda.MessageTTL == 0 {
		cfg.Camunda.MessageTTL = 3600000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 10000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 0.1
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config, profile Profile) error {
	switch profile {
	case ProfileApplyServer:
		if cfg.Upstream.RunsAPIURL == "" {
			return fmt.Errorf("upstream.runs_api_url is required")
		}
		if cfg.AWS.Bucket == "" {
			return fmt.Errorf("aws.bucket is required")
		}
		if cfg.Upload.MaxFileSize < 0 {
			return fmt.Errorf("upload.max_file_size must be positive")
		}
	case ProfilePublishFunction:
		if cfg.Events.BusName == "" {
			return fmt.Errorf("events.bus_name is required")
		}
		if cfg.AWS.SNS.Enabled && cfg.AWS.SNS.TopicARN == "" {
			return fmt.Errorf("aws.sns.topic_arn is required when sns is enabled")
		}
		if cfg.AWS.SES.Enabled && cfg.AWS.SES.FromEmail == "" {
			return fmt.Errorf("aws.ses.from_email is required when ses is enabled")
		}
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
