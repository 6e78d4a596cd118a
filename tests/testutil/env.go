package testutil

import (
	"os"
	"testing"
)

// SetupTestEnv sets environment variables for the duration of a test.
//
// The original environment is restored automatically when the test completes.
// Tests using it must not call t.Parallel().
//
// Example usage:
//
//	SetupTestEnv(t, map[string]string{
//	    "POCKET_STAGE": "dev",
//	    "AWS_REGION":   "ap-northeast-1",
//	})
func SetupTestEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	for key, value := range vars {
		t.Setenv(key, value)
	}
}

// UnsetTestEnv removes environment variables for the duration of a test and
// restores them afterwards.
//
// Useful for the POCKET_* markers a developer shell may already carry.
func UnsetTestEnv(t *testing.T, keys ...string) {
	t.Helper()

	for _, key := range keys {
		// t.Setenv registers the restore of the original value.
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("Failed to unset environment variable %s: %v", key, err)
		}
	}
}

// MapGetenv returns a getenv function backed by vars, for code that accepts
// an injectable environment lookup.
func MapGetenv(vars map[string]string) func(string) string {
	return func(key string) string {
		return vars[key]
	}
}
