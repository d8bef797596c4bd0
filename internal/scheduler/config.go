package scheduler

import "time"

// Config controls the recurring-transaction worker loop.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
}

func DefaultConfig() Config {
	return Config{
		PollInterval: time.Minute,
		BatchSize:    100,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	return c
}
