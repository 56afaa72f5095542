package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const envPrefix = "COMPANION"

type ServerConfig struct {
	Port           int           `mapstructure:"port" envconfig:"PORT"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	Mode           string        `mapstructure:"mode" envconfig:"MODE"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" envconfig:"HOST"`
	Port     int    `mapstructure:"port" envconfig:"PORT"`
	User     string `mapstructure:"user" envconfig:"USER"`
	Password string `mapstructure:"password" envconfig:"PASSWORD"`
	Name     string `mapstructure:"name" envconfig:"NAME"`
	SSLMode  string `mapstructure:"sslmode" envconfig:"SSLMODE"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	URL          string `mapstructure:"url" envconfig:"URL"`
	KeyPrefix    string `mapstructure:"key_prefix" envconfig:"KEY_PREFIX"`
	PoolSize     int    `mapstructure:"pool_size" envconfig:"POOL_SIZE"`
	MinIdleConns int    `mapstructure:"min_idle_conns" envconfig:"MIN_IDLE_CONNS"`
	MaxRetries   int    `mapstructure:"max_retries" envconfig:"MAX_RETRIES"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret" envconfig:"SECRET"`
	Issuer string `mapstructure:"issuer" envconfig:"ISSUER"`
}

// RemoteConfig points at the marketplace REST service.
type RemoteConfig struct {
	BaseURL            string        `mapstructure:"base_url" envconfig:"BASE_URL"`
	Timeout            time.Duration `mapstructure:"timeout" envconfig:"TIMEOUT"`
	RequestsPerSecond  float64       `mapstructure:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
	Burst              int           `mapstructure:"burst" envconfig:"BURST"`
	BreakerMaxFailures int           `mapstructure:"breaker_max_failures" envconfig:"BREAKER_MAX_FAILURES"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout" envconfig:"BREAKER_TIMEOUT"`
	BankCacheTTL       time.Duration `mapstructure:"bank_cache_ttl" envconfig:"BANK_CACHE_TTL"`
}

type RemindersConfig struct {
	// Backend is "redis" or "memory".
	Backend  string `mapstructure:"backend" envconfig:"BACKEND"`
	Timezone string `mapstructure:"timezone" envconfig:"TIMEZONE"`
}

type DispatcherConfig struct {
	BatchSize     int           `mapstructure:"batch_size" envconfig:"BATCH_SIZE"`
	PollInterval  time.Duration `mapstructure:"poll_interval" envconfig:"POLL_INTERVAL"`
	RetryAttempts int           `mapstructure:"retry_attempts" envconfig:"RETRY_ATTEMPTS"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" envconfig:"RETRY_DELAY"`
	PushChannel   string        `mapstructure:"push_channel" envconfig:"PUSH_CHANNEL"`
	// Delivery history older than Retention is pruned every CleanupInterval.
	Retention       time.Duration `mapstructure:"retention" envconfig:"RETENTION"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" envconfig:"CLEANUP_INTERVAL"`
}

type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled" envconfig:"ENABLED"`
	Host     string `mapstructure:"host" envconfig:"HOST"`
	Port     int    `mapstructure:"port" envconfig:"PORT"`
	Username string `mapstructure:"username" envconfig:"USERNAME"`
	Password string `mapstructure:"password" envconfig:"PASSWORD"`
	From     string `mapstructure:"from" envconfig:"FROM"`
}

type SecurityConfig struct {
	EncryptionKey  string   `mapstructure:"encryption_key" envconfig:"ENCRYPTION_KEY"`
	AllowedOrigins []string `mapstructure:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" envconfig:"ENABLED"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
	Burst             int     `mapstructure:"burst" envconfig:"BURST"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" envconfig:"LEVEL"`
	JSON  bool   `mapstructure:"json" envconfig:"JSON"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled" envconfig:"ENABLED"`
	Endpoint    string  `mapstructure:"endpoint" envconfig:"ENDPOINT"`
	Insecure    bool    `mapstructure:"insecure" envconfig:"INSECURE"`
	SampleRatio float64 `mapstructure:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

type WizardConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl" envconfig:"SESSION_TTL"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server" envconfig:"SERVER"`
	Database   DatabaseConfig   `mapstructure:"database" envconfig:"DB"`
	Redis      RedisConfig      `mapstructure:"redis" envconfig:"REDIS"`
	JWT        JWTConfig        `mapstructure:"jwt" envconfig:"JWT"`
	Remote     RemoteConfig     `mapstructure:"remote" envconfig:"REMOTE"`
	Reminders  RemindersConfig  `mapstructure:"reminders" envconfig:"REMINDERS"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher" envconfig:"DISPATCHER"`
	Email      EmailConfig      `mapstructure:"email" envconfig:"EMAIL"`
	Security   SecurityConfig   `mapstructure:"security" envconfig:"SECURITY"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit" envconfig:"RATE_LIMIT"`
	Logging    LoggingConfig    `mapstructure:"logging" envconfig:"LOG"`
	Wizard     WizardConfig     `mapstructure:"wizard" envconfig:"WIZARD"`
	Tracing    TracingConfig    `mapstructure:"tracing" envconfig:"TRACING"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "companion")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.key_prefix", "companion:reminders")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("jwt.issuer", "patient-companion")

	v.SetDefault("remote.timeout", 15*time.Second)
	v.SetDefault("remote.requests_per_second", 20)
	v.SetDefault("remote.burst", 40)
	v.SetDefault("remote.breaker_max_failures", 5)
	v.SetDefault("remote.breaker_timeout", 30*time.Second)
	v.SetDefault("remote.bank_cache_ttl", time.Hour)

	v.SetDefault("reminders.backend", "redis")
	v.SetDefault("reminders.timezone", "UTC")

	v.SetDefault("dispatcher.batch_size", 100)
	v.SetDefault("dispatcher.poll_interval", 15*time.Second)
	v.SetDefault("dispatcher.retry_attempts", 3)
	v.SetDefault("dispatcher.retry_delay", 2*time.Second)
	v.SetDefault("dispatcher.push_channel", "reminders.push")
	v.SetDefault("dispatcher.retention", 90*24*time.Hour)
	v.SetDefault("dispatcher.cleanup_interval", 6*time.Hour)

	v.SetDefault("email.port", 587)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("logging.level", "info")

	v.SetDefault("wizard.session_ttl", 30*time.Minute)

	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// Load reads .env, then config.yml, then COMPANION_* environment variables,
// each layer overriding the one before.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app/config")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var problems []string
	if c.JWT.Secret == "" {
		problems = append(problems, "jwt.secret is required")
	}
	if c.Remote.BaseURL == "" {
		problems = append(problems, "remote.base_url is required")
	}
	switch c.Reminders.Backend {
	case "redis", "memory":
	default:
		problems = append(problems, fmt.Sprintf("reminders.backend %q must be redis or memory", c.Reminders.Backend))
	}
	if _, err := time.LoadLocation(c.Reminders.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("reminders.timezone: %v", err))
	}
	if c.Dispatcher.BatchSize <= 0 || c.Dispatcher.PollInterval <= 0 || c.Dispatcher.RetryAttempts <= 0 {
		problems = append(problems, "dispatcher batch_size, poll_interval and retry_attempts must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the configured reminder time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Reminders.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
