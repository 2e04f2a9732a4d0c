package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Blob      BlobConfig      `yaml:"blob"`
	Tasks     TasksConfig     `yaml:"tasks"`
	Renderer  RendererConfig  `yaml:"renderer"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// TransportConfig selects how MCP clients reach the server: "http" or "stdio".
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// AuthConfig controls bearer token resolution. When disabled, every request
// runs as DefaultUser. AdminToken, when set, is issued to DefaultUser at
// startup so a fresh database has one usable credential.
type AuthConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DefaultUser string `yaml:"default_user"`
	AdminToken  string `yaml:"admin_token"`
}

// BlobConfig selects where payload bytes live: "sqlite" or "gcs".
type BlobConfig struct {
	Backend         string `yaml:"backend"`
	Compression     string `yaml:"compression"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

// TasksConfig selects the task state source: "sqlite" or "temporal".
type TasksConfig struct {
	Backend   string `yaml:"backend"`
	HostPort  string `yaml:"host_port"`
	Namespace string `yaml:"namespace"`
}

// RendererConfig points at the document rendering service. An empty URL
// disables document rendering.
type RendererConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "reports.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled:     true,
			DefaultUser: "admin",
		},
		Blob: BlobConfig{
			Backend:     "sqlite",
			Compression: "zstd",
			Prefix:      "results",
		},
		Tasks: TasksConfig{
			Backend:   "sqlite",
			HostPort:  "localhost:7233",
			Namespace: "default",
		},
		Renderer: RendererConfig{
			Timeout: 60 * time.Second,
		},
	}
}

// Load reads configuration from an optional YAML file and environment
// variables. The file path comes from --config or REPORTS_CONFIG_PATH.
func Load(args []string) (Config, error) {
	flags := pflag.NewFlagSet("reports", pflag.ContinueOnError)
	configPath := flags.String("config", os.Getenv("REPORTS_CONFIG_PATH"), "path to YAML config file")
	mode := flags.String("transport", "", "MCP transport: http or stdio")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if *configPath != "" {
		if err := loadFromFile(*configPath, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if *mode != "" {
		cfg.Transport.Mode = *mode
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown backend and mode names.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.Blob.Backend {
	case "sqlite":
	case "gcs":
		if c.Blob.Bucket == "" {
			return fmt.Errorf("blob backend gcs requires a bucket")
		}
	default:
		return fmt.Errorf("invalid blob backend %q", c.Blob.Backend)
	}
	switch c.Tasks.Backend {
	case "sqlite", "temporal":
	default:
		return fmt.Errorf("invalid tasks backend %q", c.Tasks.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	str("REPORTS_SERVER_HOST", &cfg.Server.Host)
	if portStr := os.Getenv("REPORTS_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid REPORTS_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	str("REPORTS_DB_PATH", &cfg.DB.Path)
	str("REPORTS_LOG_LEVEL", &cfg.Log.Level)
	str("REPORTS_LOG_PATH", &cfg.Log.Path)
	str("REPORTS_TRANSPORT_MODE", &cfg.Transport.Mode)
	if v := os.Getenv("REPORTS_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid REPORTS_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = enabled
	}
	str("REPORTS_AUTH_DEFAULT_USER", &cfg.Auth.DefaultUser)
	str("REPORTS_AUTH_ADMIN_TOKEN", &cfg.Auth.AdminToken)
	str("REPORTS_BLOB_BACKEND", &cfg.Blob.Backend)
	str("REPORTS_BLOB_COMPRESSION", &cfg.Blob.Compression)
	str("REPORTS_BLOB_BUCKET", &cfg.Blob.Bucket)
	str("REPORTS_BLOB_PREFIX", &cfg.Blob.Prefix)
	str("REPORTS_BLOB_CREDENTIALS_FILE", &cfg.Blob.CredentialsFile)
	str("REPORTS_TASKS_BACKEND", &cfg.Tasks.Backend)
	str("REPORTS_TASKS_HOST_PORT", &cfg.Tasks.HostPort)
	str("REPORTS_TASKS_NAMESPACE", &cfg.Tasks.Namespace)
	str("REPORTS_RENDERER_URL", &cfg.Renderer.URL)
	if v := os.Getenv("REPORTS_RENDERER_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REPORTS_RENDERER_TIMEOUT: %w", err)
		}
		cfg.Renderer.Timeout = timeout
	}
	cfg.Transport.Mode = strings.ToLower(cfg.Transport.Mode)
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
