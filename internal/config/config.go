// Package config reads the engine's deployment configuration from the
// environment, honoring a local .env file when present.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultLookbackDays   = 7
	defaultStdMultiplier  = 2.0
	defaultAlertThreshold = 75
)

// Config carries everything the engine needs from the environment. The region
// set and lookback window are deployment configuration, not code constants.
type Config struct {
	DatabaseURL    string
	Regions        []string
	LookbackDays   int
	StdMultiplier  float64
	AlertThreshold int
	KafkaBrokers   []string
	AlertTopic     string
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		DatabaseURL:    databaseURL(),
		Regions:        SplitList(os.Getenv("RISK_REGIONS")),
		LookbackDays:   intEnv("RISK_LOOKBACK_DAYS", defaultLookbackDays),
		StdMultiplier:  floatEnv("RISK_STD_MULTIPLIER", defaultStdMultiplier),
		AlertThreshold: intEnv("RISK_ALERT_THRESHOLD", defaultAlertThreshold),
		KafkaBrokers:   SplitList(os.Getenv("KAFKA_BROKERS")),
		AlertTopic:     strings.TrimSpace(os.Getenv("ALERT_TOPIC")),
	}
}

func databaseURL() string {
	if value := strings.TrimSpace(os.Getenv("RISK_ENGINE_DB_URL")); value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv("DATABASE_URL"))
}

// SplitList parses a comma-separated list, trimming entries and dropping
// empty ones. Shared with CLI flags that accept the same format.
func SplitList(value string) []string {
	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func intEnv(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func floatEnv(name string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
