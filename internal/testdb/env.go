//go:build integration

package testdb

import (
	"net/url"
	"os"
)

// urlEnvVars are checked in order; the first non-empty one wins.
var urlEnvVars = []string{"VIDEOSNAP_TEST_DB_URL", "DATABASE_URL"}

// DatabaseURL returns the test database URL, or "" when none is configured.
func DatabaseURL() string {
	for _, name := range urlEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ShouldSkip reports whether database tests should be skipped.
func ShouldSkip() bool {
	return DatabaseURL() == ""
}

// isCI reports whether the tests run under a CI system. Missing databases
// are fatal there instead of skipped.
func isCI() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != ""
}

// maskURL hides the password of a database URL for log output.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
