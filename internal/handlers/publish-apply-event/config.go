package publishapplyevent

import (
	"time"

	"apply-portal/internal/common/config"
)

const maxBodyBytes = 1 << 20

type Config struct {
	BusName    string
	Source     string
	DetailType string
	Timeout    time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		BusName:    cfg.Events.BusName,
		Source:     cfg.Events.Source,
		DetailType: cfg.Events.DetailType,
		Timeout:    config.GetDuration(cfg.Events.Timeout),
	}
}
