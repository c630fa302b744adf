// Package config loads service configuration from defaults, an optional
// YAML file and SEMREG_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store kinds.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Notifier kinds.
const (
	NotifierLog   = "log"
	NotifierRedis = "redis"
)

// EnvPrefix prefixes every environment variable, e.g. SEMREG_HTTP_PORT.
const EnvPrefix = "SEMREG"

// Config is the full service configuration.
type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Store     string          `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Admission AdmissionConfig `mapstructure:"admission"`
	Catalog   string          `mapstructure:"catalog"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RegisterRateLimit is the number of registration requests allowed per
	// client IP and minute. Zero disables the limit.
	RegisterRateLimit int `mapstructure:"register_rate_limit"`
}

// AdmissionConfig configures the admission hooks installed on every decision.
type AdmissionConfig struct {
	// MaxSeatsPerRegistration caps the seats of one registration. Zero
	// disables the cap.
	MaxSeatsPerRegistration int `mapstructure:"max_seats_per_registration"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// NotifyConfig selects and configures the notifier.
type NotifyConfig struct {
	Kind          string `mapstructure:"kind"`
	Organizers    bool   `mapstructure:"organizers"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisList     string `mapstructure:"redis_list"`
}

// DSN builds a libpq-compatible connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// URL builds a postgres:// URL for the same database.
func (c DatabaseConfig) URL(scheme string) string {
	return fmt.Sprintf("%s://%s:%s@%s:%d/%s?sslmode=%s",
		scheme, c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		HTTP: HTTPConfig{
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RegisterRateLimit: 60,
		},
		Store: StoreMemory,
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Name:     "seminars",
			SSLMode:  "disable",
			MaxConns: 20,
		},
		Notify: NotifyConfig{
			Kind:      NotifierLog,
			RedisAddr: "localhost:6379",
			RedisList: "semreg:notifications",
		},
	}
}

// Load reads the configuration. An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it on Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)
	v.SetDefault("http.shutdown_timeout", d.HTTP.ShutdownTimeout)
	v.SetDefault("http.register_rate_limit", d.HTTP.RegisterRateLimit)
	v.SetDefault("store", d.Store)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.max_conns", d.Database.MaxConns)
	v.SetDefault("notify.kind", d.Notify.Kind)
	v.SetDefault("notify.organizers", d.Notify.Organizers)
	v.SetDefault("notify.redis_addr", d.Notify.RedisAddr)
	v.SetDefault("notify.redis_password", d.Notify.RedisPassword)
	v.SetDefault("notify.redis_db", d.Notify.RedisDB)
	v.SetDefault("notify.redis_list", d.Notify.RedisList)
	v.SetDefault("admission.max_seats_per_registration", d.Admission.MaxSeatsPerRegistration)
	v.SetDefault("catalog", d.Catalog)
}

// Validate rejects values the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.HTTP.RegisterRateLimit < 0 {
		errs = append(errs, errors.New("http.register_rate_limit must not be negative"))
	}
	if c.Admission.MaxSeatsPerRegistration < 0 {
		errs = append(errs, errors.New("admission.max_seats_per_registration must not be negative"))
	}
	switch c.Store {
	case StoreMemory, StorePostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	switch c.Notify.Kind {
	case NotifierLog:
	case NotifierRedis:
		if c.Notify.RedisAddr == "" {
			errs = append(errs, errors.New("notify.redis_addr is required for the redis notifier"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown notifier %q", c.Notify.Kind))
	}
	return errors.Join(errs...)
}
