package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
)

type Config struct {
	// HTTP Server
	Port string
	// PublicBaseURL is used to build share links. When empty the request
	// host is used.
	PublicBaseURL string
	// RateLimit bounds mutating requests per client, in limiter format ("60-M").
	RateLimit string
	// TrustedProxies lists proxy addresses whose forwarding headers are honoured.
	TrustedProxies []string

	// Backend selection
	DataBackend string

	// Remote REST backend
	APIBaseURL string
	APITimeout time.Duration

	// Local backends
	SQLiteDBPath   string
	MemorySeedFile string

	// AMQP change notifications. An empty URL disables publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		RateLimit:      getEnv("RATE_LIMIT", "60-M"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		DataBackend: getEnv("DATA_BACKEND", "api"),

		APIBaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000/api"), "/"),
		APITimeout: getEnvDuration("API_TIMEOUT", 7*time.Second),

		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/kaslot.db"),
		MemorySeedFile: getEnv("MEMORY_SEED_FILE", "./data/seed.json"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kaslot"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "kaslot_changes"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"api", "sqlite", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "api" {
		if msg := checkHTTPURL("API base URL", c.APIBaseURL); msg != "" {
			errors = append(errors, msg)
		}
		if c.APITimeout < time.Second {
			errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at least 1 second", c.APITimeout))
		} else if c.APITimeout > 2*time.Minute {
			errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at most 2 minutes", c.APITimeout))
		}
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.PublicBaseURL != "" {
		if msg := checkHTTPURL("public base URL", c.PublicBaseURL); msg != "" {
			errors = append(errors, msg)
		}
	}

	if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
		errors = append(errors, fmt.Sprintf("invalid rate limit '%s': %v", c.RateLimit, err))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether change notifications should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func checkHTTPURL(name, raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid %s '%s': %v", name, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("invalid %s scheme '%s': must be 'http' or 'https'", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Sprintf("invalid %s '%s': missing host", name, raw)
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
