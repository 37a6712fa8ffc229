package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"playcafe/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Auth       AuthConfig       `yaml:"auth"`
	Sweep      SweepConfig      `yaml:"sweep"`
	Live       LiveConfig       `yaml:"live"`
	Storage    StorageConfig    `yaml:"storage"`
	Google     GoogleConfig     `yaml:"google"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	AMQP       AMQPConfig       `yaml:"amqp"`
	Exports    ExportConfig     `yaml:"exports"`
	Seed       SeedConfig       `yaml:"seed"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	Timezone    string `yaml:"timezone"`
}

// Location resolves App.Timezone, falling back to the process zone.
func (a AppConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      []string           `yaml:"cors_origins"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	Issuer     string        `yaml:"issuer"`
}

type SweepConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// LiveConfig tunes the per-café booking views. LookbackDays of 0 loads the
// full history so all-time revenue stays exact.
type LiveConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	LookbackDays    int           `yaml:"lookback_days"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
}

type StorageConfig struct {
	Driver string             `yaml:"driver"`
	Local  LocalStorageConfig `yaml:"local"`
	GCS    GCSConfig          `yaml:"gcs"`
}

type LocalStorageConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentials_file"`
	PublicBaseURL   string `yaml:"public_base_url"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type SeedConfig struct {
	OwnersFile string `yaml:"owners_file"`
}

type TelegramConfig struct {
	BotToken      string `yaml:"bot_token"`
	DefaultChatID int64  `yaml:"default_chat_id"`
	Debug         bool   `yaml:"debug"`
}

type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

const (
	DriverSQLite = "sqlite3"
	DriverLibSQL = "libsql"
)

type DatabaseConfig struct {
	Driver    string `yaml:"driver"`
	Path      string `yaml:"path"`
	URL       string `yaml:"url"`
	AuthToken string `yaml:"auth_token"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional in containers; a missing file is not an error.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret must be at least 16 bytes")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case DriverLibSQL:
		if c.Database.URL == "" {
			return errors.New("database url is required for libsql")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "local":
		if c.Storage.Local.Dir == "" {
			return errors.New("storage.local.dir is required")
		}
	case "gcs":
		if c.Storage.GCS.Bucket == "" {
			return errors.New("storage.gcs.bucket is required")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Sweep.Interval < time.Second {
		return errors.New("sweep.interval must be at least 1s")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "playcafe"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.RateLimit.RPS > 0 && c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 10
	}

	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = models.SessionTTL * time.Second
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = c.App.Name
	}
	if c.Sweep.Interval == 0 {
		c.Sweep.Interval = models.SweepIntervalSeconds * time.Second
	}
	if c.Live.RefreshInterval == 0 {
		c.Live.RefreshInterval = c.Sweep.Interval
	}
	if c.Live.IdleTimeout == 0 {
		c.Live.IdleTimeout = 10 * time.Minute
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Storage.Driver == "local" {
		if c.Storage.Local.Dir == "" {
			c.Storage.Local.Dir = "data/uploads"
		}
		if c.Storage.Local.BaseURL == "" {
			c.Storage.Local.BaseURL = fmt.Sprintf("http://localhost:%d/uploads", c.API.HTTP.Port)
		}
	}
	if c.AMQP.Exchange == "" {
		c.AMQP.Exchange = "playcafe.bookings"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "data/exports"
	}
}
