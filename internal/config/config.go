package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig конфигурация не прошла валидацию
var ErrInvalidConfig = errors.New("config: invalid configuration")

const (
	// EnvConfigPath переменная окружения, переопределяющая путь к конфигу
	EnvConfigPath = "CONFIG_PATH"
	// EnvJWTSecret переопределяет auth.jwt_secret
	EnvJWTSecret = "JWT_SECRET"
	// EnvSigningKey переопределяет verification.signing_key
	EnvSigningKey = "QR_SIGNING_KEY"
)

// placeholderPrefix значения-заглушки из примеров конфигурации
const placeholderPrefix = "change-me"

// Config конфигурация сервиса
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Storage      StorageConfig      `toml:"storage"`
	Logs         LogsConfig         `toml:"logs"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Redis        RedisConfig        `toml:"redis"`
	Auth         AuthConfig         `toml:"auth"`
	Booking      BookingConfig      `toml:"booking"`
	Schedule     ScheduleConfig     `toml:"schedule"`
	Verification VerificationConfig `toml:"verification"`
	OwnerService OwnerServiceConfig `toml:"owner_service"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

type DatabaseConfig struct {
	Driver          string `toml:"driver"` // postgres | pgx
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения в формате key=value, понятном и lib/pq, и pgx
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type StorageConfig struct {
	Driver string `toml:"driver"` // postgres | memory
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	LockTTL  int    `toml:"lock_ttl_ms"`
	Channel  string `toml:"channel"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	TrustHeaders bool   `toml:"trust_headers"`
}

type BookingConfig struct {
	MaxAdvanceDays        int `toml:"max_advance_days"`
	ModificationCutoffHrs int `toml:"modification_cutoff_hours"`
	MinDurationMinutes    int `toml:"min_duration_minutes"`
	MaxDurationMinutes    int `toml:"max_duration_minutes"`
	DurationStepMinutes   int `toml:"duration_step_minutes"`
	ReserveRetries        int `toml:"reserve_retries"`
	ReserveRetryDelayMs   int `toml:"reserve_retry_delay_ms"`
}

type ScheduleConfig struct {
	HorizonDays     int `toml:"horizon_days"`
	RefreshInterval int `toml:"refresh_interval"` // секунды, 0 отключает фоновое продление расписания
}

type VerificationConfig struct {
	SigningKey string `toml:"signing_key"`
	Issuer     string `toml:"issuer"`
}

type OwnerServiceConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// Load читает конфигурацию из TOML файла. CONFIG_PATH имеет приоритет над path.
func Load(path string) (*Config, error) {
	if env := os.Getenv(EnvConfigPath); env != "" {
		path = env
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse разбирает конфигурацию из строки
func Parse(data string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv подставляет секреты из окружения поверх файла
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv(EnvSigningKey); v != "" {
		c.Verification.SigningKey = v
	}
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.HTTPPort, 8080)
	setDefault(&c.Server.ReadTimeout, 15)
	setDefault(&c.Server.WriteTimeout, 15)
	setDefault(&c.Server.IdleTimeout, 60)
	setDefault(&c.Server.ShutdownTimeout, 10)

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	setDefault(&c.Database.Port, 5432)
	setDefault(&c.Database.MaxOpenConns, 25)
	setDefault(&c.Database.MaxIdleConns, 5)
	setDefault(&c.Database.ConnMaxLifetime, 300)

	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "charging-booking-service"
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "bookings:status-changed"
	}
	setDefault(&c.Redis.LockTTL, 5000)

	setDefault(&c.Booking.MaxAdvanceDays, 7)
	setDefault(&c.Booking.ModificationCutoffHrs, 12)
	setDefault(&c.Booking.MinDurationMinutes, 30)
	setDefault(&c.Booking.MaxDurationMinutes, 240)
	setDefault(&c.Booking.DurationStepMinutes, 30)
	setDefault(&c.Booking.ReserveRetries, 1)
	setDefault(&c.Booking.ReserveRetryDelayMs, 25)

	setDefault(&c.Schedule.HorizonDays, 8)

	if c.Verification.Issuer == "" {
		c.Verification.Issuer = "charging-booking-service"
	}
	setDefault(&c.OwnerService.Timeout, 5)
}

// Validate проверяет диапазоны значений
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("%w: storage.driver must be postgres or memory, got %q", ErrInvalidConfig, c.Storage.Driver)
	}
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("%w: database.driver must be postgres or pgx, got %q", ErrInvalidConfig, c.Database.Driver)
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port out of range: %d", ErrInvalidConfig, c.Server.HTTPPort)
	}
	if c.Auth.JWTSecret == "" && !c.Auth.TrustHeaders {
		return fmt.Errorf("%w: auth.jwt_secret is required unless auth.trust_headers is enabled", ErrInvalidConfig)
	}
	if c.Verification.SigningKey == "" {
		return fmt.Errorf("%w: verification.signing_key is required", ErrInvalidConfig)
	}
	if isPlaceholder(c.Auth.JWTSecret) {
		return fmt.Errorf("%w: auth.jwt_secret is a placeholder, set %s", ErrInvalidConfig, EnvJWTSecret)
	}
	if isPlaceholder(c.Verification.SigningKey) {
		return fmt.Errorf("%w: verification.signing_key is a placeholder, set %s", ErrInvalidConfig, EnvSigningKey)
	}

	b := c.Booking
	if b.DurationStepMinutes <= 0 || b.MinDurationMinutes%b.DurationStepMinutes != 0 || b.MaxDurationMinutes%b.DurationStepMinutes != 0 {
		return fmt.Errorf("%w: booking durations must be multiples of duration_step_minutes", ErrInvalidConfig)
	}
	if b.MinDurationMinutes > b.MaxDurationMinutes {
		return fmt.Errorf("%w: booking.min_duration_minutes > max_duration_minutes", ErrInvalidConfig)
	}
	if b.ReserveRetries < 0 {
		return fmt.Errorf("%w: booking.reserve_retries must be >= 0", ErrInvalidConfig)
	}
	// Расписание должно покрывать всё окно бронирования
	if c.Schedule.HorizonDays < b.MaxAdvanceDays {
		return fmt.Errorf("%w: schedule.horizon_days (%d) < booking.max_advance_days (%d)",
			ErrInvalidConfig, c.Schedule.HorizonDays, b.MaxAdvanceDays)
	}
	return nil
}

// ModificationCutoff окно запрета изменений перед началом бронирования
func (b BookingConfig) ModificationCutoff() time.Duration {
	return time.Duration(b.ModificationCutoffHrs) * time.Hour
}

// MaxAdvance максимальный горизонт бронирования
func (b BookingConfig) MaxAdvance() time.Duration {
	return time.Duration(b.MaxAdvanceDays) * 24 * time.Hour
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func isPlaceholder(secret string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(secret)), placeholderPrefix)
}
