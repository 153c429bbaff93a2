package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Provider  ProviderConfig  `yaml:"provider"`
	Sync      SyncConfig      `yaml:"sync"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	// Driver selects the backend: "sqlite" (default) or "postgres".
	Driver string `yaml:"driver"`

	// Dir holds the sqlite database directory.
	Dir string `yaml:"dir"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

type SyncConfig struct {
	// Timezone drives day and night bucketing, e.g. "Asia/Kolkata".
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone"`

	// Interval between periodic background syncs. Zero disables them.
	Interval Duration `yaml:"interval"`
}

// Duration lets YAML carry Go duration strings like "15m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Location resolves the configured timezone.
func (s SyncConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix VITALSYNC_ and underscore-separated paths:
//
//	VITALSYNC_SERVER_HOST, VITALSYNC_SERVER_PORT,
//	VITALSYNC_DB_DRIVER, VITALSYNC_DB_DIR, VITALSYNC_DB_HOST,
//	VITALSYNC_DB_PORT, VITALSYNC_DB_NAME, VITALSYNC_DB_USER,
//	VITALSYNC_DB_PASSWORD, VITALSYNC_DB_SSLMODE,
//	VITALSYNC_AUTH_API_KEY,
//	VITALSYNC_PROVIDER_BASE_URL, VITALSYNC_PROVIDER_TOKEN,
//	VITALSYNC_SYNC_TIMEZONE, VITALSYNC_SYNC_INTERVAL
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VITALSYNC_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("VITALSYNC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VITALSYNC_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("VITALSYNC_DB_DIR"); v != "" {
		cfg.Database.Dir = v
	}
	if v := os.Getenv("VITALSYNC_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("VITALSYNC_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("VITALSYNC_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("VITALSYNC_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("VITALSYNC_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("VITALSYNC_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("VITALSYNC_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("VITALSYNC_PROVIDER_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("VITALSYNC_PROVIDER_TOKEN"); v != "" {
		cfg.Provider.Token = v
	}
	if v := os.Getenv("VITALSYNC_SYNC_TIMEZONE"); v != "" {
		cfg.Sync.Timezone = v
	}
	if v := os.Getenv("VITALSYNC_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sync.Interval = Duration(d)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.Dir == "" {
		cfg.Database.Dir = "data"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required for postgres")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required for postgres")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required for postgres")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Auth.APIKey == "" && !c.Tailscale.Enabled {
		return fmt.Errorf("auth.api_key is required unless tailscale is enabled")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
