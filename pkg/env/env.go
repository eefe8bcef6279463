// Package env reads process environment variables with fallbacks.
package env

import "os"

// Get reads key from the environment. Unset and empty values both fall
// back, so a blank override behaves like no override.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
