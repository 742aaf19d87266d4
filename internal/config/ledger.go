package config

import (
	"os"
	"strconv"
	"time"
)

// LedgerConfig carries the aggregation knobs. The shared workspace id is
// injected here rather than living as a package-level constant so tests can
// run without environment coupling.
type LedgerConfig struct {
	FlaggingWindowDays int
	ClearingPeriodDays int
	WorkspaceID        string
	PayoutEndpoint     string
	PayoutSecret       string
	PayoutTimeout      time.Duration
}

func LoadLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		FlaggingWindowDays: getEnvAsInt("LEDGER_FLAGGING_WINDOW_DAYS", 4),
		ClearingPeriodDays: getEnvAsInt("LEDGER_CLEARING_PERIOD_DAYS", 7),
		WorkspaceID:        getEnv("LEDGER_WORKSPACE_ID", "00000000-0000-0000-0000-000000000000"),
		PayoutEndpoint:     getEnv("PAYOUT_RPC_ENDPOINT", "http://localhost:54321/functions/v1/request-payout"),
		PayoutSecret:       getEnv("PAYOUT_RPC_SECRET", ""),
		PayoutTimeout:      getEnvAsDuration("PAYOUT_RPC_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
