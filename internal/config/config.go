package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
// Values come from defaults, an optional portal.yaml, a .env file and the
// process environment, in increasing order of precedence.
type Config struct {
	// Server
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// Store
	StoreBackend  string `mapstructure:"store_backend"`
	StoreKey      string `mapstructure:"store_key"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`

	// Resilience
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`

	// Observability
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// JWT / Auth
	JWTSecret       string        `mapstructure:"jwt_secret"`
	JWTAccessTTL    time.Duration `mapstructure:"jwt_access_ttl"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
	ConfirmationTTL time.Duration `mapstructure:"confirmation_ttl"`

	// HTTP
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	AuthRateLimit      float64  `mapstructure:"auth_rate_limit"`
	AuthRateBurst      int      `mapstructure:"auth_rate_burst"`

	// Exports (S3)
	S3Bucket          string `mapstructure:"s3_bucket"`
	S3Region          string `mapstructure:"s3_region"`
	S3AccessKeyID     string `mapstructure:"s3_access_key_id"`
	S3SecretAccessKey string `mapstructure:"s3_secret_access_key"`
	S3Endpoint        string `mapstructure:"s3_endpoint"`
	ExportPrefix      string `mapstructure:"export_prefix"`
}

var defaults = map[string]any{
	"port":      8080,
	"log_level": "info",

	"store_backend":  "sqlite",
	"store_key":      "drayage-db",
	"sqlite_path":    "drayage.db",
	"redis_addr":     "localhost:6379",
	"redis_password": "",
	"redis_db":       0,
	"mongo_uri":      "mongodb://localhost:27017",
	"mongo_database": "drayage",

	"max_retries":     3,
	"initial_backoff": 100 * time.Millisecond,
	"max_concurrency": 50,

	"otlp_endpoint": "",

	"jwt_secret":       "portal-default-dev-secret-change-me",
	"jwt_access_ttl":   time.Hour,
	"bcrypt_cost":      12,
	"confirmation_ttl": 10 * time.Minute,

	"cors_allowed_origins": []string{"http://localhost:5173"},
	"auth_rate_limit":      1.0,
	"auth_rate_burst":      5,

	"s3_bucket":            "",
	"s3_region":            "us-east-1",
	"s3_access_key_id":     "",
	"s3_secret_access_key": "",
	"s3_endpoint":          "",
	"export_prefix":        "exports",
}

// Load reads configuration. configFile may be empty, in which case
// portal.yaml is looked up in the working directory and skipped when absent.
// A .env file in the working directory is loaded without overriding
// variables already set.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Every key maps to its upper-cased env variable (log_level → LOG_LEVEL).
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("otlp_endpoint", "OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("portal")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "memory", "sqlite", "redis", "mongo":
	default:
		return fmt.Errorf("config: unknown store_backend %q", c.StoreBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.JWTSecret == "" {
		return errors.New("config: jwt_secret must not be empty")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("config: bcrypt_cost %d out of range", c.BcryptCost)
	}
	return nil
}

// ExportsEnabled reports whether CSV exports can be uploaded.
func (c *Config) ExportsEnabled() bool {
	return c.S3Bucket != ""
}
