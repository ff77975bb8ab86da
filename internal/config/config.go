package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/medibook-api/internal/email"
	"github.com/jwalitptl/medibook-api/internal/repository/mongo"
	"github.com/jwalitptl/medibook-api/internal/repository/postgres"
	"github.com/jwalitptl/medibook-api/internal/sms"
	"github.com/jwalitptl/medibook-api/internal/storage"
	"github.com/jwalitptl/medibook-api/pkg/messaging/redis"
	"github.com/jwalitptl/medibook-api/pkg/payment"
)

// EnvPrefix prefixes every environment override, e.g. MEDIBOOK_JWT_SECRET.
const EnvPrefix = "MEDIBOOK"

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Storage      StorageConfig      `mapstructure:"storage"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Security     SecurityConfig     `mapstructure:"security"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Uploads      UploadsConfig      `mapstructure:"uploads"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Payment      PaymentConfig      `mapstructure:"payment"`
	Notification NotificationConfig `mapstructure:"notification"`
	Log          LogConfig          `mapstructure:"log"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	// Timezone decides what "today" means for booking dates.
	Timezone string `mapstructure:"timezone"`
}

type StorageConfig struct {
	Driver   string         `mapstructure:"driver"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type SecurityConfig struct {
	BcryptCost int  `mapstructure:"bcrypt_cost"`
	HSTS       bool `mapstructure:"hsts"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type UploadsConfig struct {
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
	MaxSize int64  `mapstructure:"max_size"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

type PaymentConfig struct {
	KeyID         string `mapstructure:"key_id"`
	KeySecret     string `mapstructure:"key_secret"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	Currency      string `mapstructure:"currency"`
}

type NotificationConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Twilio  TwilioConfig  `mapstructure:"twilio"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool   `mapstructure:"prometheus_enabled"`
	MetricsPath       string `mapstructure:"metrics_path"`
	Namespace         string `mapstructure:"namespace"`
}

// secrets are read from the environment after the file so they never need
// to be committed.
type secrets struct {
	Port              int    `envconfig:"PORT"`
	StorageDriver     string `envconfig:"STORAGE_DRIVER"`
	JWTSecret         string `envconfig:"JWT_SECRET"`
	MongoURI          string `envconfig:"MONGO_URI"`
	PostgresHost      string `envconfig:"POSTGRES_HOST"`
	PostgresPassword  string `envconfig:"POSTGRES_PASSWORD"`
	RedisURL          string `envconfig:"REDIS_URL"`
	RazorpayKeyID     string `envconfig:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `envconfig:"RAZORPAY_KEY_SECRET"`
	RazorpayWebhook   string `envconfig:"RAZORPAY_WEBHOOK_SECRET"`
	SMTPHost          string `envconfig:"SMTP_HOST"`
	SMTPUsername      string `envconfig:"SMTP_USERNAME"`
	SMTPPassword      string `envconfig:"SMTP_PASSWORD"`
	TwilioAccountSID  string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFrom        string `envconfig:"TWILIO_FROM"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", gin.ReleaseMode)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.timezone", "UTC")

	v.SetDefault("storage.driver", DriverMongo)
	v.SetDefault("storage.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("storage.mongo.database", "medibook")
	v.SetDefault("storage.mongo.connect_timeout", "10s")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.user", "postgres")
	v.SetDefault("storage.postgres.name", "medibook")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.postgres.max_open_conns", 25)
	v.SetDefault("storage.postgres.max_idle_conns", 5)
	v.SetDefault("storage.postgres.conn_max_lifetime", "5m")

	v.SetDefault("jwt.ttl", "360h")
	v.SetDefault("security.bcrypt_cost", 10)

	v.SetDefault("uploads.dir", "./uploads")
	v.SetDefault("uploads.base_url", "http://localhost:5000")
	v.SetDefault("uploads.max_size", 5<<20)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 1)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", "24h")

	v.SetDefault("payment.currency", "INR")
	v.SetDefault("notification.timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("monitoring.prometheus_enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.namespace", "medibook")
}

// Load reads .env, then the YAML file at path (or config.yml in . or
// ./config when path is empty), then MEDIBOOK_* environment overrides.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	var s secrets
	if err := envconfig.Process(EnvPrefix, &s); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	setInt(&c.Server.Port, s.Port)
	setString(&c.Storage.Driver, s.StorageDriver)
	setString(&c.JWT.Secret, s.JWTSecret)
	setString(&c.Storage.Mongo.URI, s.MongoURI)
	setString(&c.Storage.Postgres.Host, s.PostgresHost)
	setString(&c.Storage.Postgres.Password, s.PostgresPassword)
	setString(&c.Redis.URL, s.RedisURL)
	setString(&c.Payment.KeyID, s.RazorpayKeyID)
	setString(&c.Payment.KeySecret, s.RazorpayKeySecret)
	setString(&c.Payment.WebhookSecret, s.RazorpayWebhook)
	setString(&c.Notification.SMTP.Host, s.SMTPHost)
	setString(&c.Notification.SMTP.Username, s.SMTPUsername)
	setString(&c.Notification.SMTP.Password, s.SMTPPassword)
	setString(&c.Notification.Twilio.AccountSID, s.TwilioAccountSID)
	setString(&c.Notification.Twilio.AuthToken, s.TwilioAuthToken)
	setString(&c.Notification.Twilio.From, s.TwilioFrom)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.JWT.Secret) == "" {
		problems = append(problems, "jwt.secret is required")
	}
	switch c.Storage.Driver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("storage.driver %q is not one of mongo, postgres, memory", c.Storage.Driver))
	}
	switch c.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		problems = append(problems, fmt.Sprintf("server.mode %q is invalid", c.Server.Mode))
	}
	if c.Server.Port <= 0 {
		problems = append(problems, "server.port must be positive")
	}
	if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("server.timezone %q is unknown", c.Server.Timezone))
	}
	if c.Payment.KeyID != "" && (c.Payment.KeySecret == "" || c.Payment.WebhookSecret == "") {
		problems = append(problems, "payment.key_secret and payment.webhook_secret are required with payment.key_id")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the configured booking time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) PaymentEnabled() bool {
	return c.Payment.KeyID != ""
}

func (c *MongoConfig) ToStoreConfig() mongo.Config {
	return mongo.Config{
		URI:            c.URI,
		Database:       c.Database,
		ConnectTimeout: c.ConnectTimeout,
	}
}

func (c *PostgresConfig) ToStoreConfig() postgres.Config {
	return postgres.Config{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Name:            c.Name,
		SSLMode:         c.SSLMode,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}

func (c *UploadsConfig) ToStoreConfig() storage.Config {
	return storage.Config{
		Dir:     c.Dir,
		BaseURL: c.BaseURL,
		MaxSize: c.MaxSize,
	}
}

func (c *PaymentConfig) ToGatewayConfig() payment.Config {
	return payment.Config{
		KeyID:         c.KeyID,
		KeySecret:     c.KeySecret,
		WebhookSecret: c.WebhookSecret,
	}
}

func (c *SMTPConfig) ToEmailConfig() email.Config {
	return email.Config{
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		From:     c.From,
	}
}

func (c *TwilioConfig) ToSMSConfig() sms.Config {
	return sms.Config{
		AccountSID: c.AccountSID,
		AuthToken:  c.AuthToken,
		From:       c.From,
	}
}
