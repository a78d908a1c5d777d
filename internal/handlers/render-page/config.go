package renderpage

import (
	"strings"

	"apply-portal/internal/common/config"
)

type Config struct {
	DefaultTenant     string
	MaxFileSize       int64
	AllowedTypes      []string
	AllowedExtensions []string
	SubmitURL         string
}

func LoadConfig(cfg *config.Config, submitURL string) *Config {
	return &Config{
		DefaultTenant:     cfg.Tenants.Default,
		MaxFileSize:       cfg.Upload.MaxFileSize,
		AllowedTypes:      cfg.Upload.AllowedTypes,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		SubmitURL:         submitURL,
	}
}

// accept is the file input's accept attribute.
func (c *Config) accept() string {
	return strings.Join(c.AllowedExtensions, ",")
}
