package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("QOTD_DATABASE_URL", "postgres://localhost/quotes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Notify.Subject != "Your Daily Motivation!" {
		t.Errorf("unexpected default subject: %s", cfg.Notify.Subject)
	}
	if cfg.Notify.Workers != 4 {
		t.Errorf("expected 4 default workers, got %d", cfg.Notify.Workers)
	}
	if cfg.SMTP.Port != 25 {
		t.Errorf("expected default smtp port 25, got %d", cfg.SMTP.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QOTD_DATABASE_URL", "postgres://db/quotes")
	t.Setenv("QOTD_REDIS_URL", "redis://cache:6379")
	t.Setenv("QOTD_SERVER_PORT", "9999")
	t.Setenv("QOTD_API_KEY", "sekrit")
	t.Setenv("QOTD_SMTP_HOST", "mail.example.com")
	t.Setenv("QOTD_NOTIFY_RATELIMIT", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.URL != "postgres://db/quotes" {
		t.Errorf("database url not applied: %s", cfg.Database.URL)
	}
	if cfg.Redis.URL != "redis://cache:6379" {
		t.Errorf("redis url not applied: %s", cfg.Redis.URL)
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("server port not applied: %s", cfg.Server.Port)
	}
	if cfg.API.Key != "sekrit" {
		t.Errorf("api key not applied: %s", cfg.API.Key)
	}
	if cfg.SMTP.Host != "mail.example.com" {
		t.Errorf("smtp host not applied: %s", cfg.SMTP.Host)
	}
	if cfg.Notify.RateLimit != 25 {
		t.Errorf("rate limit not applied: %d", cfg.Notify.RateLimit)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("QOTD_DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without a database URL")
	}
}
