// internal/workers/valuation/send-valuation-notice/config.go
package sendvaluationnotice

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	// ThresholdPercent is the undervaluation percentage at or above which
	// the adjuster is notified.
	ThresholdPercent float64
	// SMSPriority is the lowest job priority that also gets a text message.
	SMSPriority string
	Timeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ThresholdPercent: 5,
		SMSPriority:      PriorityHigh,
		Timeout:          15 * time.Second,
	}
}
