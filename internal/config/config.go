package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AuthConfig struct {
	JWT struct {
		Secret   string        `mapstructure:"secret"`
		Issuer   string        `mapstructure:"issuer"`
		Duration time.Duration `mapstructure:"duration"`
	} `mapstructure:"jwt"`
	StampLastAccess bool `mapstructure:"stamp_last_access"`
}

// DatabaseConfig is the profile store connection.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StoreConfig is the document store binding.
type StoreConfig struct {
	// Driver is "sql" or "memory".
	Driver string `mapstructure:"driver"`
	// UnindexedCollections lack the composite (filter, created_at)
	// index; planned queries against them run through the fallback.
	UnindexedCollections []string `mapstructure:"unindexed_collections"`
	ScopedLimit          int      `mapstructure:"scoped_limit"`
	AdminLimit           int      `mapstructure:"admin_limit"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DSN builds the profile store connection string.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite3" {
		return d.Name
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "docport")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("auth.jwt.issuer", "docport")
	v.SetDefault("auth.jwt.duration", 8*time.Hour)
	v.SetDefault("auth.stamp_last_access", true)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "docport")
	v.SetDefault("database.user", "docport")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("store.driver", "sql")
	v.SetDefault("store.scoped_limit", 50)
	v.SetDefault("store.admin_limit", 100)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads configuration from the given file plus DOCPORT_* environment
// overrides, and watches the file for changes.
func Load(path string) error {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("DOCPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	loaded := &Config{}
	if err := v.Unmarshal(loaded); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	mu.Lock()
	cfg = loaded
	mu.Unlock()

	v.OnConfigChange(func(e fsnotify.Event) {
		reloaded := &Config{}
		if err := v.Unmarshal(reloaded); err != nil {
			return
		}
		mu.Lock()
		cfg = reloaded
		mu.Unlock()
	})
	v.WatchConfig()

	return nil
}

// LoadDefaults initializes configuration from defaults and environment
// only, for deployments without a config file.
func LoadDefaults() error {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("DOCPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	loaded := &Config{}
	if err := v.Unmarshal(loaded); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	mu.Lock()
	cfg = loaded
	mu.Unlock()
	return nil
}

// Get returns the current configuration, or nil before Load.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// MustGet returns the current configuration, loading defaults once if
// nothing was loaded explicitly.
func MustGet() *Config {
	once.Do(func() {
		if Get() == nil {
			_ = LoadDefaults()
		}
	})
	return Get()
}
