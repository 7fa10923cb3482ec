package utils

import (
	"os"
	"strconv"
)

// GetEnv retrieves an environment variable, falling back to a default
// when missing or empty.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetIntEnv retrieves an integer environment variable with a default
func GetIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
