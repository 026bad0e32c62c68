package db

import (
	"testing"

	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

func TestPostgresDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "u", Password: "p", Name: "memberhub"}
	if got := cfg.PostgresDSN(); got != "postgres://u:p@db:5432/memberhub?sslmode=disable" {
		t.Fatalf("got %q", got)
	}
	cfg.DSN = "postgres://explicit"
	if got := cfg.PostgresDSN(); got != "postgres://explicit" {
		t.Fatalf("got %q", got)
	}
}

func TestSQLiteServiceMigrates(t *testing.T) {
	svc, err := NewService(logger.Nop(), Config{Driver: "sqlite", DSN: "file::memory:"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	defer svc.Close()
	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	for _, table := range []string{"user", "product", "purchase", "knowledge_chunk", "community_post", "assistant_config"} {
		if !svc.DB().Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := NewService(logger.Nop(), Config{Driver: "mysql"}); err == nil {
		t.Fatal("expected error")
	}
}
