package submitapplication

import (
	"time"

	"apply-portal/internal/common/config"
	"apply-portal/internal/common/validation"
)

const (
	// multipart overhead allowed on top of the CV itself
	formOverheadBytes = 1 << 20
	memoryBytes       = 1 << 20
)

type Config struct {
	DefaultTenant      string
	DefaultLanguage    string
	SupportedLanguages []string
	Rules              validation.Rules
	MaxBodyBytes       int64
	Timeout            time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		DefaultTenant:      cfg.Tenants.Default,
		DefaultLanguage:    cfg.I18n.DefaultLanguage,
		SupportedLanguages: cfg.I18n.SupportedLanguages,
		Rules: validation.Rules{
			MaxFileSize:       cfg.Upload.MaxFileSize,
			AllowedTypes:      cfg.Upload.AllowedTypes,
			AllowedExtensions: cfg.Upload.AllowedExtensions,
		},
		MaxBodyBytes: cfg.Upload.MaxFileSize + formOverheadBytes,
		Timeout:      config.GetDuration(cfg.Server.WriteTimeout),
	}
}
