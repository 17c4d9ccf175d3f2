package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the scheduler
// service.
type Config struct {
	HTTPPort       int
	SQLiteDSN      string
	SessionSecret  string
	SessionTTL     time.Duration
	Timezone       string
	WorkdayStart   int
	WorkdayEnd     int
	SuggestDays    int
	GroupRangeDays int
	ReportCacheTTL time.Duration
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; required values are validated and
// reported together so operators see every problem in one pass.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		SQLiteDSN:      "file:scheduler.db?_foreign_keys=on",
		SessionTTL:     24 * time.Hour,
		Timezone:       "UTC",
		WorkdayStart:   8,
		WorkdayEnd:     18,
		SuggestDays:    7,
		GroupRangeDays: 14,
		ReportCacheTTL: 30 * time.Second,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SCHEDULER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SCHEDULER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("SCHEDULER_SESSION_SECRET")); secret == "" {
		missing = append(missing, "SCHEDULER_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SCHEDULER_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SCHEDULER_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if tz := strings.TrimSpace(os.Getenv("SCHEDULER_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "SCHEDULER_TIMEZONE")
		} else {
			cfg.Timezone = tz
		}
	}

	if value := strings.TrimSpace(os.Getenv("SCHEDULER_WORKDAY_START_HOUR")); value != "" {
		hour, err := strconv.Atoi(value)
		if err != nil || hour < 0 || hour > 23 {
			invalid = append(invalid, "SCHEDULER_WORKDAY_START_HOUR")
		} else {
			cfg.WorkdayStart = hour
		}
	}

	if value := strings.TrimSpace(os.Getenv("SCHEDULER_WORKDAY_END_HOUR")); value != "" {
		hour, err := strconv.Atoi(value)
		if err != nil || hour < 1 || hour > 24 {
			invalid = append(invalid, "SCHEDULER_WORKDAY_END_HOUR")
		} else {
			cfg.WorkdayEnd = hour
		}
	}

	if value := strings.TrimSpace(os.Getenv("SCHEDULER_SUGGEST_HORIZON_DAYS")); value != "" {
		days, err := strconv.Atoi(value)
		if err != nil || days <= 0 {
			invalid = append(invalid, "SCHEDULER_SUGGEST_HORIZON_DAYS")
		} else {
			cfg.SuggestDays = days
		}
	}

	if value := strings.TrimSpace(os.Getenv("SCHEDULER_GROUP_RANGE_DAYS")); value != "" {
		days, err := strconv.Atoi(value)
		if err != nil || days <= 0 {
			invalid = append(invalid, "SCHEDULER_GROUP_RANGE_DAYS")
		} else {
			cfg.GroupRangeDays = days
		}
	}

	if value := strings.TrimSpace(os.Getenv("SCHEDULER_REPORT_CACHE_TTL")); value != "" {
		ttl, err := time.ParseDuration(value)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SCHEDULER_REPORT_CACHE_TTL")
		} else {
			cfg.ReportCacheTTL = ttl
		}
	}

	if cfg.WorkdayStart >= cfg.WorkdayEnd {
		invalid = append(invalid, "SCHEDULER_WORKDAY_START_HOUR")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Location resolves the configured timezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
