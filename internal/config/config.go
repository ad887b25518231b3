package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// envPrefix префикс переменных окружения, переопределяющих значения из файла
const envPrefix = "FACILITY"

var (
	// ErrReadConfig возвращается, если не удалось прочитать файл конфигурации
	ErrReadConfig = errors.New("config: failed to read config file")

	// ErrEnvOverride возвращается при некорректных переменных окружения
	ErrEnvOverride = errors.New("config: failed to apply environment overrides")

	// ErrInvalidConfig возвращается, если конфигурация не прошла валидацию
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config конфигурация сервиса
type Config struct {
	Server   ServerConfig   `toml:"server" envconfig:"server"`
	Database DatabaseConfig `toml:"database" envconfig:"database"`
	Logs     LogsConfig     `toml:"logs" envconfig:"logs"`
	Metrics  MetricsConfig  `toml:"metrics" envconfig:"metrics"`
	Booking  BookingConfig  `toml:"booking" envconfig:"booking"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq" envconfig:"rabbitmq"`
	Redis    RedisConfig    `toml:"redis" envconfig:"redis"`
	Auth     AuthConfig     `toml:"auth" envconfig:"auth"`
	Mailer   MailerConfig   `toml:"mailer" envconfig:"mailer"`
	Notifier NotifierConfig `toml:"notifier" envconfig:"notifier"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port" envconfig:"http_port"`
	ReadTimeout     int `toml:"read_timeout" envconfig:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout" envconfig:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout" envconfig:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout" envconfig:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host" envconfig:"host"`
	Port            int    `toml:"port" envconfig:"port"`
	User            string `toml:"user" envconfig:"user"`
	Password        string `toml:"password" envconfig:"password"`
	DBName          string `toml:"dbname" envconfig:"dbname"`
	SSLMode         string `toml:"sslmode" envconfig:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns" envconfig:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns" envconfig:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime" envconfig:"conn_max_lifetime"`
}

// DSN возвращает строку подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level" envconfig:"level"`
	File  string `toml:"file" envconfig:"file"`
}

// MetricsConfig настройки prometheus метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled" envconfig:"enabled"`
	Path        string `toml:"path" envconfig:"path"`
	ServiceName string `toml:"service_name" envconfig:"service_name"`
}

// BookingConfig правила бронирования
type BookingConfig struct {
	Timezone            string `toml:"timezone" envconfig:"timezone"`
	SlotDurationMinutes int    `toml:"slot_duration_minutes" envconfig:"slot_duration_minutes"`
	OpenHour            int    `toml:"open_hour" envconfig:"open_hour"`
	CloseHour           int    `toml:"close_hour" envconfig:"close_hour"`
	TxRetries           int    `toml:"tx_retries" envconfig:"tx_retries"`
}

// Location возвращает часовой пояс, в котором определяется "сегодня" и "сейчас"
func (c BookingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// RabbitMQConfig настройки брокера уведомлений
type RabbitMQConfig struct {
	URL           string `toml:"url" envconfig:"url"`
	Exchange      string `toml:"exchange" envconfig:"exchange"`
	Queue         string `toml:"queue" envconfig:"queue"`
	PrefetchCount int    `toml:"prefetch_count" envconfig:"prefetch_count"`

	// Пауза между попытками переподключения издателя
	ReconnectDelaySeconds int `toml:"reconnect_delay_seconds" envconfig:"reconnect_delay_seconds"`
}

// ReconnectDelay возвращает паузу переподключения издателя
func (c RabbitMQConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelaySeconds) * time.Second
}

// RedisConfig настройки кэша занятых слотов
type RedisConfig struct {
	Enabled    bool   `toml:"enabled" envconfig:"enabled"`
	Addr       string `toml:"addr" envconfig:"addr"`
	Password   string `toml:"password" envconfig:"password"`
	DB         int    `toml:"db" envconfig:"db"`
	TTLSeconds int    `toml:"ttl_seconds" envconfig:"ttl_seconds"`
}

// TTL время жизни записи кэша
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// AuthConfig настройки проверки bearer токенов
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret" envconfig:"jwt_secret"`
	Issuer    string `toml:"issuer" envconfig:"issuer"`
}

// MailerConfig настройки SMTP. При Enabled=false письма только пишутся в лог
type MailerConfig struct {
	Enabled  bool   `toml:"enabled" envconfig:"enabled"`
	Host     string `toml:"host" envconfig:"host"`
	Port     int    `toml:"port" envconfig:"port"`
	Username string `toml:"username" envconfig:"username"`
	Password string `toml:"password" envconfig:"password"`
	From     string `toml:"from" envconfig:"from"`
}

// NotifierConfig настройки публикации и обработки уведомлений
type NotifierConfig struct {
	PublishTimeoutSeconds int     `toml:"publish_timeout_seconds" envconfig:"publish_timeout_seconds"`
	HandleTimeoutSeconds  int     `toml:"handle_timeout_seconds" envconfig:"handle_timeout_seconds"`
	RatePerSecond         float64 `toml:"rate_per_second" envconfig:"rate_per_second"`
	Burst                 int     `toml:"burst" envconfig:"burst"`
	MetricsPort           int     `toml:"metrics_port" envconfig:"metrics_port"` // 0 - без /metrics у обработчика
}

// Load читает конфигурацию из TOML файла.
// Перед чтением подгружается .env (если есть), после чтения значения
// переопределяются переменными окружения с префиксом FACILITY_.
func Load(path string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, path, err)
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvOverride, err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}

	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "facility-booking"
	}

	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
	if c.Booking.SlotDurationMinutes == 0 {
		c.Booking.SlotDurationMinutes = 60
	}
	if c.Booking.OpenHour == 0 && c.Booking.CloseHour == 0 {
		c.Booking.OpenHour = 9
		c.Booking.CloseHour = 18
	}
	if c.Booking.TxRetries == 0 {
		c.Booking.TxRetries = 3
	}

	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "facility.bookings"
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "facility.notifications"
	}
	if c.RabbitMQ.PrefetchCount == 0 {
		c.RabbitMQ.PrefetchCount = 10
	}
	if c.RabbitMQ.ReconnectDelaySeconds == 0 {
		c.RabbitMQ.ReconnectDelaySeconds = 5
	}

	if c.Redis.TTLSeconds == 0 {
		c.Redis.TTLSeconds = 30
	}

	if c.Mailer.Port == 0 {
		c.Mailer.Port = 587
	}

	if c.Notifier.PublishTimeoutSeconds == 0 {
		c.Notifier.PublishTimeoutSeconds = 5
	}
	if c.Notifier.HandleTimeoutSeconds == 0 {
		c.Notifier.HandleTimeoutSeconds = 30
	}
	if c.Notifier.RatePerSecond == 0 {
		c.Notifier.RatePerSecond = 5
	}
	if c.Notifier.Burst == 0 {
		c.Notifier.Burst = 1
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port must be in 1..65535", ErrInvalidConfig)
	}

	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("%w: database.host and database.dbname are required", ErrInvalidConfig)
	}

	if _, err := c.Booking.Location(); err != nil {
		return fmt.Errorf("%w: booking.timezone %q: %v", ErrInvalidConfig, c.Booking.Timezone, err)
	}

	if c.Booking.SlotDurationMinutes < 5 || c.Booking.SlotDurationMinutes > 480 {
		return fmt.Errorf("%w: booking.slot_duration_minutes must be in 5..480", ErrInvalidConfig)
	}

	if c.Booking.OpenHour < 0 || c.Booking.CloseHour > 23 || c.Booking.OpenHour >= c.Booking.CloseHour {
		return fmt.Errorf("%w: booking.open_hour must be before booking.close_hour within 0..23", ErrInvalidConfig)
	}

	if c.Booking.TxRetries < 1 {
		return fmt.Errorf("%w: booking.tx_retries must be positive", ErrInvalidConfig)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.jwt_secret is required", ErrInvalidConfig)
	}

	if c.Mailer.Enabled && (c.Mailer.Host == "" || c.Mailer.From == "") {
		return fmt.Errorf("%w: mailer.host and mailer.from are required when mailer is enabled", ErrInvalidConfig)
	}

	if c.RabbitMQ.ReconnectDelaySeconds < 1 {
		return fmt.Errorf("%w: rabbitmq.reconnect_delay_seconds must be positive", ErrInvalidConfig)
	}

	if c.Notifier.MetricsPort < 0 || c.Notifier.MetricsPort > 65535 {
		return fmt.Errorf("%w: notifier.metrics_port must be in 0..65535", ErrInvalidConfig)
	}

	if c.Notifier.RatePerSecond < 0 || c.Notifier.Burst < 1 {
		return fmt.Errorf("%w: notifier.rate_per_second must be >= 0 and notifier.burst >= 1", ErrInvalidConfig)
	}

	return nil
}
