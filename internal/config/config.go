package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"panel/internal/core"
	applog "panel/internal/log"
)

const (
	SourceMemory = "memory"
	SourceSQLite = "sqlite"
	SourceSheets = "sheets"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	TrustedProxies     []string

	// Record source selection
	DataSource string
	DataDir    string

	// Database
	SQLiteDBPath string

	// AMQP (optional, alerts fan-out)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServicesSheet      string
	GoogleExpensesSheet      string
	GoogleFixedExpensesSheet string
	GoogleCategoriesSheet    string
	GoogleCredentialsFile    string
	GoogleCredentialsJSON    string

	// Metrics engine
	SnapshotCacheTTL time.Duration
	FetchTimeout     time.Duration
	MaxRangeDays     int
	SlashDateOrder   string
	Timezone         string

	// Periodic month-to-date alert evaluation; zero disables it
	AlertPollInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),

		DataSource: getEnv("DATA_SOURCE", SourceMemory),
		DataDir:    getEnv("DATA_DIR", "./data"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/panel.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "panel"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "panel_alerts"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServicesSheet:      getEnv("GOOGLE_SERVICES_SHEET", "Servicios"),
		GoogleExpensesSheet:      getEnv("GOOGLE_EXPENSES_SHEET", "Gastos"),
		GoogleFixedExpensesSheet: getEnv("GOOGLE_FIXED_EXPENSES_SHEET", "Gastos fijos"),
		GoogleCategoriesSheet:    getEnv("GOOGLE_CATEGORIES_SHEET", "Categorias"),
		GoogleCredentialsFile:    getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON:    getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		SnapshotCacheTTL: getEnvDuration("SNAPSHOT_CACHE_TTL", time.Minute),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		MaxRangeDays:     getEnvInt("MAX_RANGE_DAYS", 366),
		SlashDateOrder:   getEnv("SLASH_DATE_ORDER", core.SlashDayFirstUnlessImpossible),
		Timezone:         getEnv("TIMEZONE", "UTC"),

		AlertPollInterval: getEnvDuration("ALERT_POLL_INTERVAL", 0),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", applog.FormatText),
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

	for _, proxy := range c.TrustedProxies {
		if !isCIDROrIP(proxy) {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be an IP address or CIDR", proxy))
		}
	}

	// Validate record source
	validSources := []string{SourceMemory, SourceSheets, SourceSQLite}
	isValidSource := false
	for _, source := range validSources {
		if c.DataSource == source {
			isValidSource = true
			break
		}
	}
	if !isValidSource {
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, validSources))
	}

	if c.DataSource == SourceMemory && c.DataDir == "" {
		errors = append(errors, "data directory cannot be empty when using memory source")
	}

	// Validate SQLite configuration if source is sqlite
	if c.DataSource == SourceSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite source")
		} else {
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

	// Validate Google Sheets configuration if source is sheets
	if c.DataSource == SourceSheets {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets source")
		}
		if c.GoogleServicesSheet == "" || c.GoogleExpensesSheet == "" || c.GoogleFixedExpensesSheet == "" {
			errors = append(errors, "Google sheet names for services, expenses and fixed expenses are required when using sheets source")
		}

		hasFile := c.GoogleCredentialsFile != ""
		hasJSON := c.GoogleCredentialsJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for sheets source")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	// Validate engine settings
	if _, err := core.SlashOrderByName(c.SlashDateOrder); err != nil {
		errors = append(errors, fmt.Sprintf("invalid slash date order '%s': must be one of %v", c.SlashDateOrder, core.SlashOrderNames()))
	}
	if c.MaxRangeDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid max range days %d: must be at least 1", c.MaxRangeDays))
	} else if c.MaxRangeDays > 3660 {
		errors = append(errors, fmt.Sprintf("invalid max range days %d: must be at most 3660", c.MaxRangeDays))
	}
	if c.SnapshotCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid snapshot cache ttl %v: must not be negative", c.SnapshotCacheTTL))
	}
	if c.FetchTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at least 100ms", c.FetchTimeout))
	} else if c.FetchTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at most 5 minutes", c.FetchTimeout))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if c.AlertPollInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid alert poll interval %v: must not be negative", c.AlertPollInterval))
	} else if c.AlertPollInterval > 0 && c.AlertPollInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid alert poll interval %v: must be at least 1 minute", c.AlertPollInterval))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Validate logging
	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != applog.FormatText && c.LogFormat != applog.FormatJSON {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// DateParser builds the date parser for the configured slash order.
func (c *Config) DateParser() (core.DateParser, error) {
	order, err := core.SlashOrderByName(c.SlashDateOrder)
	if err != nil {
		return core.DateParser{}, err
	}
	return core.NewDateParser(order), nil
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func isCIDROrIP(s string) bool {
	if _, _, err := net.ParseCIDR(s); err == nil {
		return true
	}
	return net.ParseIP(s) != nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
