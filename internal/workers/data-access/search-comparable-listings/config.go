// internal/workers/data-access/search-comparable-listings/config.go
package searchcomparablelistings

import "time"

type Config struct {
	Timeout     time.Duration
	Index       string
	YearWindow  int
	MaxDistance float64 // miles
	MaxListings int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		Index:       "vehicle_listings",
		YearWindow:  2,
		MaxDistance: 150,
		MaxListings: 25,
	}
}
