package config

import (
	"errors"
	"time"
)

type PollerConfig struct {
	AccrualPollingInterval time.Duration `mapstructure:"accrual-polling-interval"`
	StatsPollingInterval   time.Duration `mapstructure:"stats-polling-interval"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.AccrualPollingInterval <= 0 {
		return errors.New("accrual-polling-interval must be positive")
	}

	if cfg.StatsPollingInterval <= 0 {
		return errors.New("stats-polling-interval must be positive")
	}

	return nil
}
