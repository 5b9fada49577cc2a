// internal/workers/valuation/calculate-market-value/config.go
package calculatemarketvalue

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
