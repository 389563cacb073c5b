package pkg

import "os"

// Getenv returns the value of the environment variable key or defaultValue
// if the variable is not set. An empty value counts as set.
func Getenv(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}

	return value
}
