package config

import (
	"os"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"SCHEDULER_HTTP_PORT",
			"SCHEDULER_SQLITE_DSN",
			"SCHEDULER_SESSION_TTL",
			"SCHEDULER_TIMEZONE",
			"SCHEDULER_WORKDAY_START_HOUR",
			"SCHEDULER_WORKDAY_END_HOUR",
			"SCHEDULER_SUGGEST_HORIZON_DAYS",
			"SCHEDULER_GROUP_RANGE_DAYS",
			"SCHEDULER_REPORT_CACHE_TTL",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		const secret = "super-secret"
		t.Setenv("SCHEDULER_SESSION_SECRET", secret)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:scheduler.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionSecret != secret {
			t.Fatalf("expected session secret to be %q, got %q", secret, cfg.SessionSecret)
		}
		if cfg.WorkdayStart != 8 || cfg.WorkdayEnd != 18 {
			t.Fatalf("unexpected default workday window: %d-%d", cfg.WorkdayStart, cfg.WorkdayEnd)
		}
		if cfg.SuggestDays != 7 || cfg.GroupRangeDays != 14 {
			t.Fatalf("unexpected default search ranges: %d/%d", cfg.SuggestDays, cfg.GroupRangeDays)
		}
		if cfg.Location() != time.UTC {
			t.Fatalf("expected UTC default location, got %v", cfg.Location())
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		for _, key := range []string{
			"SCHEDULER_SESSION_SECRET",
			"SCHEDULER_HTTP_PORT",
			"SCHEDULER_SQLITE_DSN",
		} {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "missing required environment variables: SCHEDULER_SESSION_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		t.Setenv("SCHEDULER_SESSION_SECRET", "secret-value")
		t.Setenv("SCHEDULER_HTTP_PORT", "9090")
		t.Setenv("SCHEDULER_SQLITE_DSN", "file:/tmp/scheduler.db")
		t.Setenv("SCHEDULER_SESSION_TTL", "12h")
		t.Setenv("SCHEDULER_WORKDAY_START_HOUR", "9")
		t.Setenv("SCHEDULER_WORKDAY_END_HOUR", "17")
		t.Setenv("SCHEDULER_SUGGEST_HORIZON_DAYS", "10")
		t.Setenv("SCHEDULER_GROUP_RANGE_DAYS", "21")
		t.Setenv("SCHEDULER_REPORT_CACHE_TTL", "1m")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.SessionTTL != 12*time.Hour {
			t.Fatalf("expected session TTL 12h, got %s", cfg.SessionTTL)
		}
		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/scheduler.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.WorkdayStart != 9 || cfg.WorkdayEnd != 17 {
			t.Fatalf("unexpected workday window: %d-%d", cfg.WorkdayStart, cfg.WorkdayEnd)
		}
		if cfg.SuggestDays != 10 || cfg.GroupRangeDays != 21 {
			t.Fatalf("unexpected search ranges: %d/%d", cfg.SuggestDays, cfg.GroupRangeDays)
		}
		if cfg.ReportCacheTTL != time.Minute {
			t.Fatalf("expected report cache TTL 1m, got %s", cfg.ReportCacheTTL)
		}
	})

	t.Run("rejects an inverted workday window", func(t *testing.T) {
		t.Setenv("SCHEDULER_SESSION_SECRET", "secret-value")
		t.Setenv("SCHEDULER_WORKDAY_START_HOUR", "18")
		t.Setenv("SCHEDULER_WORKDAY_END_HOUR", "8")

		if _, err := Load(); err == nil {
			t.Fatalf("expected error for inverted workday window")
		}
	})
}
