package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stockin.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("STOCKIN_DEV_MODE", "true")

	cfg, err := LoadFromFile(writeConfigFile(t, "{}"))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Server.Port)
	}
	if time.Duration(cfg.Server.WriteTimeout) <= time.Duration(cfg.Research.Timeout) {
		t.Errorf("write timeout %v must exceed research timeout %v",
			time.Duration(cfg.Server.WriteTimeout), time.Duration(cfg.Research.Timeout))
	}
	if cfg.Database.Path != "data/stockin.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Research.Model != "llama-3.1-8b-instant" {
		t.Errorf("model = %q", cfg.Research.Model)
	}
	if cfg.Research.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("research base url = %q", cfg.Research.BaseURL)
	}
	if time.Duration(cfg.Research.Timeout) != 40*time.Second {
		t.Errorf("research timeout = %v", time.Duration(cfg.Research.Timeout))
	}
	if cfg.Static.Dir != "web" {
		t.Errorf("static dir = %q", cfg.Static.Dir)
	}
	if time.Duration(cfg.Backup.Interval) != time.Hour {
		t.Errorf("backup interval = %v", time.Duration(cfg.Backup.Interval))
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadFromFile_YAMLValues(t *testing.T) {
	t.Setenv("STOCKIN_DEV_MODE", "true")

	cfg, err := LoadFromFile(writeConfigFile(t, `
server:
  port: 9001
  read_timeout: 5s
database:
  path: /tmp/other.db
research:
  model: llama-3.3-70b-versatile
  timeout: 20s
log:
  level: debug
  format: text
`))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Server.Port)
	}
	if time.Duration(cfg.Server.ReadTimeout) != 5*time.Second {
		t.Errorf("read timeout = %v", time.Duration(cfg.Server.ReadTimeout))
	}
	if cfg.Database.Path != "/tmp/other.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Research.Model != "llama-3.3-70b-versatile" {
		t.Errorf("model = %q", cfg.Research.Model)
	}
	if time.Duration(cfg.Research.Timeout) != 20*time.Second {
		t.Errorf("research timeout = %v", time.Duration(cfg.Research.Timeout))
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadFromFile_EnvOverridesYAML(t *testing.T) {
	t.Setenv("STOCKIN_DEV_MODE", "true")
	t.Setenv("STOCKIN_PORT", "9002")
	t.Setenv("STOCKIN_DB_PATH", "/tmp/env.db")
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("NEWS_API_KEY", "news-key")
	t.Setenv("SUPABASE_JWT_SECRET", "jwt-secret")

	cfg, err := LoadFromFile(writeConfigFile(t, `
server:
  port: 9001
database:
  path: /tmp/yaml.db
`))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Server.Port != 9002 {
		t.Errorf("port = %d, want env override 9002", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("db path = %q, want env override", cfg.Database.Path)
	}
	if cfg.Research.APIKey != "groq-key" {
		t.Errorf("research api key = %q", cfg.Research.APIKey)
	}
	if cfg.News.APIKey != "news-key" {
		t.Errorf("news api key = %q", cfg.News.APIKey)
	}
	if cfg.Supabase.JWTSecret != "jwt-secret" {
		t.Errorf("jwt secret = %q", cfg.Supabase.JWTSecret)
	}
}

func TestValidate_RequiresSupabaseSettings(t *testing.T) {
	t.Setenv("STOCKIN_DEV_MODE", "")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")

	_, err := LoadFromFile(writeConfigFile(t, "{}"))
	if err == nil {
		t.Fatal("LoadFromFile = nil error, want SUPABASE_URL required")
	}
	if !strings.Contains(err.Error(), "SUPABASE_URL") {
		t.Errorf("err = %v", err)
	}
}

func TestValidate_RequiresAnonKey(t *testing.T) {
	t.Setenv("STOCKIN_DEV_MODE", "")
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "")

	_, err := LoadFromFile(writeConfigFile(t, "{}"))
	if err == nil {
		t.Fatal("LoadFromFile = nil error, want SUPABASE_ANON_KEY required")
	}
	if !strings.Contains(err.Error(), "SUPABASE_ANON_KEY") {
		t.Errorf("err = %v", err)
	}
}

func TestValidate_DevModeSkipsIdentityChecks(t *testing.T) {
	t.Setenv("STOCKIN_DEV_MODE", "true")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")

	if _, err := LoadFromFile(writeConfigFile(t, "{}")); err != nil {
		t.Errorf("LoadFromFile in dev mode = %v, want nil", err)
	}
}

func TestLoadFromFile_InvalidDuration(t *testing.T) {
	t.Setenv("STOCKIN_DEV_MODE", "true")

	_, err := LoadFromFile(writeConfigFile(t, `
server:
  read_timeout: banana
`))
	if err == nil {
		t.Fatal("LoadFromFile = nil error, want duration parse failure")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	t.Setenv("STOCKIN_DEV_MODE", "true")

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFromFile on missing path = nil error, want read failure")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("STOCKIN_DEV_MODE", "true")
	t.Setenv("STOCKIN_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want default 8000", cfg.Server.Port)
	}
}
