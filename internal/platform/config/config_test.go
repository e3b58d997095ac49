package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	contents := `
server:
  addr: ":9090"
firestore:
  project_id: demo-project
auth:
  jwt_secret: file-secret
  token_ttl: 30m
pubsub:
  enabled: true
  topic: order-events-test
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected addr :9090, got %s", cfg.Server.Addr)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Fatalf("expected token ttl 30m, got %s", cfg.Auth.TokenTTL)
	}
	if cfg.PubSub.Topic != "order-events-test" {
		t.Fatalf("expected pubsub topic order-events-test, got %s", cfg.PubSub.Topic)
	}
	if cfg.Cache.MenuTTL != 5*time.Minute {
		t.Fatalf("expected default menu ttl, got %s", cfg.Cache.MenuTTL)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LANTERN_FIRESTORE_PROJECT_ID", "env-project")
	t.Setenv("LANTERN_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("LANTERN_LOG_LEVEL", "debug")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Firestore.ProjectID != "env-project" {
		t.Fatalf("expected env-project, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug log level, got %s", cfg.Log.Level)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("LANTERN_FIRESTORE_PROJECT_ID", "env-project")
	t.Setenv("LANTERN_AUTH_JWT_SECRET", "")

	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for missing jwt secret")
	}
}
