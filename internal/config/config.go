package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER" env-required:"true"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD" env-required:"true"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME" env-required:"true"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"30m"`
	ConnMaxIdleTime time.Duration `yaml:"CONN_MAX_IDLE_TIME" env:"PG_CONN_MAX_IDLE_TIME" env-default:"5m"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" env:"CACHE_DEFAULT_TTL" env-default:"5m"`
}

// Session controls the anonymous session cookie and how long session state
// (cart signature, payment intent, last order id) lives in Redis.
type Session struct {
	CookieName string        `yaml:"COOKIE_NAME" env:"SESSION_COOKIE_NAME" env-default:"session_id"`
	TTL        time.Duration `yaml:"TTL" env:"SESSION_TTL" env-default:"24h"`
	Secure     bool          `yaml:"SECURE" env:"SESSION_COOKIE_SECURE" env-default:"false"`
}

type Stripe struct {
	APIKey             string        `yaml:"STRIPE_API_KEY" env:"STRIPE_API_KEY" env-default:""`
	PublishableKey     string        `yaml:"STRIPE_PUBLISHABLE_KEY" env:"STRIPE_PUBLISHABLE_KEY" env-default:""`
	WebhookSecret      string        `yaml:"STRIPE_WEBHOOK_SECRET" env:"STRIPE_WEBHOOK_SECRET" env-default:""`
	Currency           string        `yaml:"STRIPE_CURRENCY" env:"STRIPE_CURRENCY" env-default:"usd"`
	RequestTimeout     time.Duration `yaml:"STRIPE_REQUEST_TIMEOUT" env:"STRIPE_REQUEST_TIMEOUT" env-default:"30s"`
	BreakerMaxFailures uint32        `yaml:"STRIPE_BREAKER_MAX_FAILURES" env:"STRIPE_BREAKER_MAX_FAILURES" env-default:"5"`
	BreakerOpenTimeout time.Duration `yaml:"STRIPE_BREAKER_OPEN_TIMEOUT" env:"STRIPE_BREAKER_OPEN_TIMEOUT" env-default:"30s"`
}

type SendGrid struct {
	APIKey    string `yaml:"API_KEY" env:"SENDGRID_API_KEY" env-default:""`
	FromEmail string `yaml:"FROM_EMAIL" env:"SENDGRID_FROM_EMAIL" env-default:"orders@example.com"`
	FromName  string `yaml:"FROM_NAME" env:"SENDGRID_FROM_NAME" env-default:"Storefront"`
}

type Kafka struct {
	Brokers []string `yaml:"BROKERS" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"TOPIC" env:"KAFKA_ORDERS_TOPIC" env-default:"orders"`
}

// RateLimit caps checkout submissions per session inside a sliding window.
type RateLimit struct {
	MaxAttempts int64         `yaml:"MAX_ATTEMPTS" env:"CHECKOUT_RATE_MAX_ATTEMPTS" env-default:"10"`
	WindowSize  time.Duration `yaml:"WINDOW_SIZE" env:"CHECKOUT_RATE_WINDOW" env-default:"1m"`
}

type Security struct {
	JWTKey         string `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
	JWTExpiryHours int    `yaml:"JWT_EXPIRY_HOURS" env:"JWT_EXPIRY_HOURS" env-default:"24"`
}

type Otel struct {
	ServiceName      string  `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"storefront-checkout"`
	ExporterEndpoint string  `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:""`
	SamplerRatio     float64 `yaml:"SAMPLER_RATIO" env:"OTEL_SAMPLER_RATIO" env-default:"1.0"`
}

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-required:"true"`
	HTTPServer   `yaml:"http_server"`
	Database     Database     `yaml:"database"`
	RedisConnect RedisConnect `yaml:"redis"`
	Cache        CacheConfig  `yaml:"cache"`
	Session      Session      `yaml:"session"`
	Stripe       Stripe       `yaml:"stripe"`
	SendGrid     SendGrid     `yaml:"sendgrid"`
	Kafka        Kafka        `yaml:"kafka"`
	Security     Security     `yaml:"security"`
	RateLimit    RateLimit    `yaml:"rate_limit"`
	Otel         Otel         `yaml:"otel"`
}

func MustLoad() *Config {

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "gets the config flag value")

		flag.Parse()

		configPath = *flags

		if configPath == "" {
			configPath = "config/local.yaml"
		}

	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return cfg
}

// LoadConfigFromPath reads the YAML file at path and applies environment
// overrides on top of it.
func LoadConfigFromPath(path string) (*Config, error) {

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return &cfg, nil
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s", r.Username, r.Password, r.Host, r.Port)
}
