// Package config loads the server configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is everything the server needs, resolved and validated once at
// startup.
type Config struct {
	Port   int
	DBPath string

	// CryptoKey encrypts the session cookie. Any non-empty string works;
	// keys that are not exactly 32 bytes are stretched with HKDF.
	CryptoKey string

	// OAuth app credentials for the login exchange.
	GitHubClientID     string
	GitHubClientSecret string

	// Hosting account: the token creates repositories and sends
	// invitations; the login filters lists and names created copies.
	GitHubToken string
	GitHubUser  string

	// TemplateOrg is the org in the canonical upstream URL imports pull
	// from. Usually the same as GitHubUser.
	TemplateOrg string

	CVDir       string
	CORSOrigins []string

	WatchInterval time.Duration
	WatchMaxPolls int

	// AuthRatePerMin limits POST /users/auth per client IP.
	AuthRatePerMin int
}

// FromEnv reads the configuration, applying defaults for the optional
// variables and failing fast when a required one is missing.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:           8080,
		DBPath:         "data/devhub.db",
		CVDir:          "data/cv",
		CORSOrigins:    []string{"*"},
		WatchInterval:  5 * time.Second,
		WatchMaxPolls:  360,
		AuthRatePerMin: 10,
	}

	if val := os.Getenv("PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", val, err)
		}
		cfg.Port = port
	}
	if val := os.Getenv("DB_PATH"); val != "" {
		cfg.DBPath = val
	}
	if val := os.Getenv("CV_DIR"); val != "" {
		cfg.CVDir = val
	}
	if val := os.Getenv("CORS_ORIGINS"); val != "" {
		cfg.CORSOrigins = splitAndTrim(val)
	}
	if val := os.Getenv("WATCH_INTERVAL"); val != "" {
		interval, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("config: invalid WATCH_INTERVAL %q: %w", val, err)
		}
		cfg.WatchInterval = interval
	}
	if val := getEnvInt("WATCH_MAX_POLLS"); val > 0 {
		cfg.WatchMaxPolls = val
	}
	if val := getEnvInt("AUTH_RATE_PER_MIN"); val > 0 {
		cfg.AuthRatePerMin = val
	}

	cfg.CryptoKey = os.Getenv("CRYPTO_KEY")
	cfg.GitHubClientID = os.Getenv("GITHUB_CLIENT_ID")
	cfg.GitHubClientSecret = os.Getenv("GITHUB_CLIENT_SECRET")
	cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	cfg.GitHubUser = os.Getenv("GITHUB_USER")

	cfg.TemplateOrg = os.Getenv("GITHUB_TEMPLATE_ORG")
	if cfg.TemplateOrg == "" {
		cfg.TemplateOrg = cfg.GitHubUser
	}

	for name, val := range map[string]string{
		"CRYPTO_KEY":           cfg.CryptoKey,
		"GITHUB_CLIENT_ID":     cfg.GitHubClientID,
		"GITHUB_CLIENT_SECRET": cfg.GitHubClientSecret,
		"GITHUB_TOKEN":         cfg.GitHubToken,
		"GITHUB_USER":          cfg.GitHubUser,
	} {
		if val == "" {
			return nil, fmt.Errorf("config: %s is required", name)
		}
	}

	return cfg, nil
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
