package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App            AppConfig
	Log            LogConfig
	HTTP           HTTPConfig
	Backend        BackendConfig
	Reconciliation ReconciliationConfig
	Notification   NotificationConfig
	Redis          RedisConfig
	Database       DatabaseConfig
	Kafka          KafkaConfig
	Telemetry      TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds admin HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration // zero keeps SSE streams open
	IdleTimeout      time.Duration
	CORSAllowOrigins []string
	TrustedProxies   []string
	SSEHeartbeat     time.Duration
}

// BackendConfig holds settings for the commerce backend that owns orders and stock
type BackendConfig struct {
	BaseURL        string
	Timeout        time.Duration
	ServiceSecret  string        // HMAC secret for service tokens
	ServiceIssuer  string        // iss claim of service tokens
	ServiceSubject string        // sub claim of service tokens
	TokenTTL       time.Duration // lifetime of a service token
}

// ReconciliationConfig holds reconciliation scheduler settings
type ReconciliationConfig struct {
	Enabled             bool
	Interval            time.Duration // timer trigger period
	RunTimeout          time.Duration // upper bound for one pass
	RunOnStart          bool
	HistorySize         int
	WatchEnabled        bool          // poll the order feed for changes between timer ticks
	WatchInterval       time.Duration // feed polling period
	StatsRefreshTimeout time.Duration
}

// NotificationConfig holds notification bus settings
type NotificationConfig struct {
	Capacity        int
	DefaultDuration time.Duration
}

// RedisConfig holds Redis connection settings for the adjustment guard
type RedisConfig struct {
	Enabled   bool
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// DatabaseConfig holds database connection settings for run history
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// KafkaConfig holds settings for the order status event consumer
type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable tracing
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
}

// Load reads configuration from config.toml and SYNC_ prefixed environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			SSEHeartbeat:     v.GetDuration("http.sse_heartbeat"),
		},
		Backend: BackendConfig{
			BaseURL:        v.GetString("backend.base_url"),
			Timeout:        v.GetDuration("backend.timeout"),
			ServiceSecret:  v.GetString("backend.service_secret"),
			ServiceIssuer:  v.GetString("backend.service_issuer"),
			ServiceSubject: v.GetString("backend.service_subject"),
			TokenTTL:       v.GetDuration("backend.token_ttl"),
		},
		Reconciliation: ReconciliationConfig{
			Enabled:             v.GetBool("reconciliation.enabled"),
			Interval:            v.GetDuration("reconciliation.interval"),
			RunTimeout:          v.GetDuration("reconciliation.run_timeout"),
			RunOnStart:          v.GetBool("reconciliation.run_on_start"),
			HistorySize:         v.GetInt("reconciliation.history_size"),
			WatchEnabled:        v.GetBool("reconciliation.watch_enabled"),
			WatchInterval:       v.GetDuration("reconciliation.watch_interval"),
			StatsRefreshTimeout: v.GetDuration("reconciliation.stats_refresh_timeout"),
		},
		Notification: NotificationConfig{
			Capacity:        v.GetInt("notification.capacity"),
			DefaultDuration: v.GetDuration("notification.default_duration"),
		},
		Redis: RedisConfig{
			Enabled:   v.GetBool("redis.enabled"),
			Host:      v.GetString("redis.host"),
			Port:      v.GetInt("redis.port"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("database.enabled"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Kafka: KafkaConfig{
			Enabled:  v.GetBool("kafka.enabled"),
			Brokers:  v.GetStringSlice("kafka.brokers"),
			Topic:    v.GetString("kafka.topic"),
			GroupID:  v.GetString("kafka.group_id"),
			MinBytes: v.GetInt("kafka.min_bytes"),
			MaxBytes: v.GetInt("kafka.max_bytes"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
		},
	}

	// Booleans that default to true cannot be told apart from an explicit false
	// after GetBool, so they are resolved against IsSet.
	if !v.IsSet("reconciliation.enabled") {
		cfg.Reconciliation.Enabled = true
	}
	if !v.IsSet("reconciliation.run_on_start") {
		cfg.Reconciliation.RunOnStart = true
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for empty configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "inventory-sync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"http://localhost:3000"}
	}
	if cfg.HTTP.SSEHeartbeat == 0 {
		cfg.HTTP.SSEHeartbeat = 30 * time.Second
	}

	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:5000"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Backend.ServiceIssuer == "" {
		cfg.Backend.ServiceIssuer = "inventory-sync"
	}
	if cfg.Backend.ServiceSubject == "" {
		cfg.Backend.ServiceSubject = "inventory-reconciler"
	}
	if cfg.Backend.TokenTTL == 0 {
		cfg.Backend.TokenTTL = 15 * time.Minute
	}

	if cfg.Reconciliation.Interval == 0 {
		cfg.Reconciliation.Interval = 5 * time.Minute
	}
	if cfg.Reconciliation.RunTimeout == 0 {
		cfg.Reconciliation.RunTimeout = 2 * time.Minute
	}
	if cfg.Reconciliation.HistorySize == 0 {
		cfg.Reconciliation.HistorySize = 50
	}
	if cfg.Reconciliation.WatchInterval == 0 {
		cfg.Reconciliation.WatchInterval = 15 * time.Second
	}
	if cfg.Reconciliation.StatsRefreshTimeout == 0 {
		cfg.Reconciliation.StatsRefreshTimeout = 30 * time.Second
	}

	if cfg.Notification.Capacity == 0 {
		cfg.Notification.Capacity = 5
	}
	if cfg.Notification.DefaultDuration == 0 {
		cfg.Notification.DefaultDuration = 5 * time.Second
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "inventory:adjustment:applied:"
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "inventory_sync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 10
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "orders.status-changed"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "inventory-sync"
	}
	if cfg.Kafka.MinBytes == 0 {
		cfg.Kafka.MinBytes = 1
	}
	if cfg.Kafka.MaxBytes == 0 {
		cfg.Kafka.MaxBytes = 10e6
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 && cfg.App.Env != "production" {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("backend.base_url is not a valid URL: %w", err)
	}
	if c.Reconciliation.Interval < time.Second {
		return fmt.Errorf("reconciliation.interval must be at least 1s, got %s", c.Reconciliation.Interval)
	}
	if c.Reconciliation.RunTimeout <= 0 {
		return fmt.Errorf("reconciliation.run_timeout must be positive")
	}
	if c.Reconciliation.HistorySize < 1 {
		return fmt.Errorf("reconciliation.history_size must be positive")
	}
	if c.Notification.Capacity < 1 {
		return fmt.Errorf("notification.capacity must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka is enabled")
	}

	if c.App.Env == "production" {
		if c.Backend.ServiceSecret == "" {
			return fmt.Errorf("backend.service_secret is required in production")
		}
		if len(c.Backend.ServiceSecret) < 32 {
			return fmt.Errorf("backend.service_secret must be at least 32 characters in production")
		}
		if c.Database.Enabled && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
