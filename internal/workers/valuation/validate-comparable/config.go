// internal/workers/valuation/validate-comparable/config.go
package validatecomparable

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
