package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"TOKEN", "TELEGRAM_BOT_TOKEN", "WEB_APP_URL", "FIREBASE_SERVICE_ACCOUNT_KEY_PATH",
		"FIREBASE_DATABASE_URL", "STORE_BACKEND", "PORT",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != BackendMemory || cfg.TopN != 5 || cfg.Listen != ":8000" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	ttl, err := cfg.DraftTTLDuration()
	if err != nil || ttl != 24*time.Hour {
		t.Fatalf("draft ttl = %v, %v", ttl, err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
listen: ":9090"
bot_token: from-file
store:
  backend: File
  path: /tmp/events.json
top_n: 3
draft_ttl: 2h
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TOKEN", "from-env")
	t.Setenv("WEB_APP_URL", "https://example.test/app")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotToken != "from-env" {
		t.Errorf("env should override token, got %q", cfg.BotToken)
	}
	if cfg.WebAppURL != "https://example.test/app" {
		t.Errorf("web app url = %q", cfg.WebAppURL)
	}
	if cfg.Store.Backend != BackendFile || cfg.Store.Path != "/tmp/events.json" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Listen != ":9090" || cfg.TopN != 3 {
		t.Errorf("listen/top_n = %q/%d", cfg.Listen, cfg.TopN)
	}
	if cfg.IndexPath != "index.html" || cfg.LogLevel != "info" {
		t.Errorf("defaults not filled: %+v", cfg)
	}
}

func TestLoadRejectsBadSettings(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cases := map[string]string{
		"backend":  "store:\n  backend: redis\n",
		"firebase": "store:\n  backend: firebase\n",
		"ttl":      "draft_ttl: soon\n",
		"yaml":     "listen: [\n",
	}
	for name, data := range cases {
		path := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestFirebaseFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "firebase")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "/secrets/key.json")
	t.Setenv("FIREBASE_DATABASE_URL", "https://example.firebaseio.com")
	t.Setenv("PORT", "10000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != BackendFirebase || cfg.Store.Firebase.DatabaseURL == "" || cfg.Listen != ":10000" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
