// internal/workers/valuation/score-comparables/config.go
package scorecomparables

import "time"

type Config struct {
	Timeout time.Duration
	// EquipmentValues are deployment-wide overrides of the standard
	// equipment value table. Job input overrides win over these.
	EquipmentValues map[string]float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
