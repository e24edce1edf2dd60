package utils

import "os"

// ParseWithFallback reads an environment variable, falling back to the
// given default when it is unset or empty.
func ParseWithFallback(name string, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}

	return fallback
}
