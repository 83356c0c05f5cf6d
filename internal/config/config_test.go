package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if cfg.Import.ChunkSize != 50 {
		t.Errorf("expected chunk size 50, got %d", cfg.Import.ChunkSize)
	}
	if cfg.Remote.Enabled {
		t.Error("remote execution should be off by default")
	}
	if cfg.Remote.InsecureIgnoreHostKey {
		t.Error("host key checking must be on by default")
	}
	if cfg.Ledger.Driver != "sqlite" {
		t.Errorf("expected sqlite ledger, got %q", cfg.Ledger.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/pokemigrate.yaml")
	if err != nil {
		t.Errorf("expected no error for missing file, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config for missing file, got nil")
	}
	if cfg.Target.Port != 5432 {
		t.Errorf("expected default target port, got %d", cfg.Target.Port)
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pokemigrate.yaml")

	content := `
dump:
  path: dumps/poke.sql
  questions: seeds/questions.json
remote:
  enabled: true
  host: db.example.com
  user: deploy
  known_hosts_file: ~/.ssh/known_hosts
  timeout: 45s
target:
  database: poke_prod
import:
  chunk_size: 200
schema_file: schema.yaml
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Dump.Path != "dumps/poke.sql" || cfg.Dump.Questions != "seeds/questions.json" {
		t.Errorf("dump section not loaded: %+v", cfg.Dump)
	}
	if !cfg.Remote.Enabled || cfg.Remote.Host != "db.example.com" || cfg.Remote.User != "deploy" {
		t.Errorf("remote section not loaded: %+v", cfg.Remote)
	}
	if cfg.Remote.Timeout != 45*time.Second {
		t.Errorf("expected 45s timeout, got %v", cfg.Remote.Timeout)
	}
	// Unset keys keep their defaults.
	if cfg.Remote.Port != 22 || cfg.Remote.OSUser != "postgres" {
		t.Errorf("remote defaults lost: %+v", cfg.Remote)
	}
	if cfg.Target.Database != "poke_prod" || cfg.Target.Host != "localhost" {
		t.Errorf("target section = %+v", cfg.Target)
	}
	if cfg.Import.ChunkSize != 200 {
		t.Errorf("expected chunk size 200, got %d", cfg.Import.ChunkSize)
	}
	if cfg.SchemaFile != "schema.yaml" {
		t.Errorf("expected schema file, got %q", cfg.SchemaFile)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "pokemigrate.yaml")
	if err := os.WriteFile(configPath, []byte("remote: [not, a, map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(configPath); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("POKEMIGRATE_REMOTE_HOST", "ssh.internal")
	t.Setenv("POKEMIGRATE_TARGET_USER", "loader")
	t.Setenv("POKEMIGRATE_TARGET_PORT", "6543")
	t.Setenv("POKEMIGRATE_MYSQL_DATABASE", "poke_legacy")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Remote.Host != "ssh.internal" {
		t.Errorf("Remote.Host = %q", cfg.Remote.Host)
	}
	if cfg.Target.User != "loader" || cfg.Target.Port != 6543 {
		t.Errorf("Target = %+v", cfg.Target)
	}
	if cfg.MySQL.Database != "poke_legacy" {
		t.Errorf("MySQL.Database = %q", cfg.MySQL.Database)
	}
}

func TestLoadConfig_BadEnvPortIgnored(t *testing.T) {
	t.Setenv("POKEMIGRATE_TARGET_PORT", "not-a-port")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Target.Port != 5432 {
		t.Errorf("expected default port to survive, got %d", cfg.Target.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"chunk size", func(c *Config) { c.Import.ChunkSize = 0 }, "import.chunk_size"},
		{"remote host", func(c *Config) { c.Remote.Enabled = true }, "remote.host"},
		{"port", func(c *Config) { c.MySQL.Port = 70000 }, "mysql.port"},
		{"ledger", func(c *Config) { c.Ledger.Driver = "redis" }, "ledger.driver"},
		{"ledger none", func(c *Config) { c.Ledger.Driver = "none" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_ReportsInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "pokemigrate.yaml")
	if err := os.WriteFile(configPath, []byte("import:\n  chunk_size: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfig(configPath)
	if err == nil || !strings.Contains(err.Error(), configPath) {
		t.Errorf("expected error naming %s, got %v", configPath, err)
	}
}
