package config

import (
	"os"
	"time"
)

// ExpiryInterval returns the pause between two expiry sweeps, overridable
// through LOANSERVICE_EXPIRY_INTERVAL (any time.ParseDuration format).
func ExpiryInterval() time.Duration {
	const defaultInterval = time.Hour

	raw := os.Getenv("LOANSERVICE_EXPIRY_INTERVAL")
	if raw == "" {
		return defaultInterval
	}

	interval, err := time.ParseDuration(raw)
	if err != nil || interval <= 0 {
		return defaultInterval
	}

	return interval
}

// ListenAddr returns the HTTP listen address, overridable through
// LOANSERVICE_LISTEN_ADDR.
func ListenAddr() string {
	if addr := os.Getenv("LOANSERVICE_LISTEN_ADDR"); addr != "" {
		return addr
	}

	return ":8080"
}
