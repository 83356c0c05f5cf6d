package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when no --config flag is given.
const DefaultPath = "pokemigrate.yaml"

// Config holds every pokemigrate setting. Passwords are never read from
// here; they come from the secret store.
type Config struct {
	Dump   DumpConfig   `yaml:"dump"`
	Remote RemoteConfig `yaml:"remote"`
	Target TargetConfig `yaml:"target"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Ledger LedgerConfig `yaml:"ledger"`
	Import ImportConfig `yaml:"import"`

	// SchemaFile overrides or extends the built-in table definitions.
	SchemaFile string `yaml:"schema_file"`

	// SecretsDir holds one file per secret, e.g. /run/secrets.
	SecretsDir string `yaml:"secrets_dir"`
}

// DumpConfig locates the input files and where output goes.
type DumpConfig struct {
	Path       string `yaml:"path"`
	Questions  string `yaml:"questions"`
	Items      string `yaml:"items"`
	OutputDir  string `yaml:"output_dir"`
	ScriptsDir string `yaml:"scripts_dir"`
}

// RemoteConfig is the SSH host running PostgreSQL. When Enabled is false,
// scripts are loaded straight over a PostgreSQL connection instead.
type RemoteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	User    string `yaml:"user"`

	KeyFile        string `yaml:"key_file"`
	KnownHostsFile string `yaml:"known_hosts_file"`

	// InsecureIgnoreHostKey skips host key verification. Never the default.
	InsecureIgnoreHostKey bool `yaml:"insecure_ignore_host_key"`

	Timeout time.Duration `yaml:"timeout"`

	// OSUser is the account psql runs as through sudo.
	OSUser    string `yaml:"os_user"`
	RemoteDir string `yaml:"remote_dir"`
}

// TargetConfig is the PostgreSQL database the data is loaded into.
type TargetConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// MySQLConfig is the live source database for the pull command.
type MySQLConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	User     string        `yaml:"user"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LedgerConfig selects where applied chunks are recorded.
type LedgerConfig struct {
	// Driver is "sqlite", "postgres" or "none". The postgres ledger lives
	// in the target database; "none" disables resuming.
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// ImportConfig tunes script generation and loading.
type ImportConfig struct {
	ChunkSize int           `yaml:"chunk_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a Config with working defaults.
func DefaultConfig() *Config {
	return &Config{
		Dump: DumpConfig{
			OutputDir:  "output",
			ScriptsDir: "output/postgres",
		},
		Remote: RemoteConfig{
			Port:      22,
			Timeout:   30 * time.Second,
			OSUser:    "postgres",
			RemoteDir: "/tmp",
		},
		Target: TargetConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "poke",
			SSLMode:  "disable",
		},
		MySQL: MySQLConfig{
			Host:    "localhost",
			Port:    3306,
			Timeout: 10 * time.Second,
		},
		Ledger: LedgerConfig{
			Driver: "sqlite",
			Path:   "data/ledger.db",
		},
		Import: ImportConfig{
			ChunkSize: 50,
			Timeout:   30 * time.Minute,
		},
	}
}

// LoadConfig loads configuration from a YAML file over the defaults, then
// applies environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return config, nil
}

// applyEnv overrides host and user settings from POKEMIGRATE_* variables.
func (c *Config) applyEnv() {
	setString(&c.Remote.Host, "POKEMIGRATE_REMOTE_HOST")
	setString(&c.Remote.User, "POKEMIGRATE_REMOTE_USER")
	setInt(&c.Remote.Port, "POKEMIGRATE_REMOTE_PORT")
	setString(&c.Target.Host, "POKEMIGRATE_TARGET_HOST")
	setString(&c.Target.User, "POKEMIGRATE_TARGET_USER")
	setString(&c.Target.Database, "POKEMIGRATE_TARGET_DATABASE")
	setInt(&c.Target.Port, "POKEMIGRATE_TARGET_PORT")
	setString(&c.MySQL.Host, "POKEMIGRATE_MYSQL_HOST")
	setString(&c.MySQL.User, "POKEMIGRATE_MYSQL_USER")
	setString(&c.MySQL.Database, "POKEMIGRATE_MYSQL_DATABASE")
	setString(&c.SecretsDir, "POKEMIGRATE_SECRETS_DIR")
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.Import.ChunkSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("import.chunk_size must be positive, got %d", c.Import.ChunkSize))
	}
	if c.Remote.Enabled && c.Remote.Host == "" {
		result = multierror.Append(result, errors.New("remote.host is required when remote.enabled is set"))
	}
	ports := []struct {
		name string
		port int
	}{
		{"remote.port", c.Remote.Port},
		{"target.port", c.Target.Port},
		{"mysql.port", c.MySQL.Port},
	}
	for _, p := range ports {
		if p.port <= 0 || p.port > 65535 {
			result = multierror.Append(result, fmt.Errorf("%s out of range: %d", p.name, p.port))
		}
	}
	switch c.Ledger.Driver {
	case "sqlite", "postgres", "none":
	default:
		result = multierror.Append(result, fmt.Errorf("ledger.driver must be sqlite, postgres or none, got %q", c.Ledger.Driver))
	}
	return result.ErrorOrNil()
}
