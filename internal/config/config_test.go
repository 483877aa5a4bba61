package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ballot-app-go/pkg/logger"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("AUTH_SKIP", "true")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.HTTPPort)
	}
	if cfg.DB.Driver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.DB.Driver)
	}
	if cfg.Ballots.PageSize != 40 {
		t.Fatalf("expected page size 40, got %d", cfg.Ballots.PageSize)
	}
	if cfg.Ballots.CastTimeout != 10*time.Second {
		t.Fatalf("expected cast timeout 10s, got %s", cfg.Ballots.CastTimeout)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "" {
		t.Fatalf("unexpected log options %+v", cfg.Log)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("BALLOTS_PAGE_SIZE", "10")
	t.Setenv("TALLY_CACHE_TTL", "30s")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.DB.Driver != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", cfg.DB.Driver)
	}
	if cfg.Ballots.PageSize != 10 {
		t.Fatalf("expected page size 10, got %d", cfg.Ballots.PageSize)
	}
	if cfg.Ballots.TallyCacheTTL != 30*time.Second {
		t.Fatalf("expected ttl 30s, got %s", cfg.Ballots.TallyCacheTTL)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Fatalf("unexpected log options %+v", cfg.Log)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected two cors origins, got %v", cfg.CORSOrigins)
	}
}

func TestParseRejectsUnknownDriver(t *testing.T) {
	t.Setenv("AUTH_SKIP", "true")
	t.Setenv("DB_DRIVER", "mysql")

	if _, err := Parse(); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestParseRequiresSecret(t *testing.T) {
	t.Setenv("AUTH_SKIP", "false")
	t.Setenv("AUTH_JWT_SECRET", "")

	if _, err := Parse(); err == nil {
		t.Fatalf("expected error without jwt secret")
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	content := "HTTP_PORT=9090\nDB_NAME=from_file\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Chdir(dir)
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("AUTH_SKIP", "true")
	t.Setenv("DB_NAME", "")
	os.Unsetenv("DB_NAME")
	t.Cleanup(func() { os.Unsetenv("DB_NAME") })

	cfg, err := Load(logger.Discard())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "7070" {
		t.Fatalf("expected env to win, got %q", cfg.HTTPPort)
	}
	if cfg.DB.Name != "from_file" {
		t.Fatalf("expected DB_NAME from .env, got %q", cfg.DB.Name)
	}
}

func TestGetDSN(t *testing.T) {
	cfg := DBConfig{DSN: "postgres://x"}
	if cfg.GetDSN() != "postgres://x" {
		t.Fatalf("expected explicit dsn")
	}

	cfg = DBConfig{Host: "db", User: "u", Password: "p", Name: "n", Port: "5432", SSLMode: "disable", TimeZone: "UTC"}
	want := "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC"
	if cfg.GetDSN() != want {
		t.Fatalf("unexpected dsn %q", cfg.GetDSN())
	}
}
