package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"

	EventsNone  = "none"
	EventsNATS  = "nats"
	EventsKafka = "kafka"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Admin     AdminConfig     `mapstructure:"admin"`
	GeoIP     GeoIPConfig     `mapstructure:"geoip"`
	Events    EventsConfig    `mapstructure:"events"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout_seconds"`
	WriteTimeout int      `mapstructure:"write_timeout_seconds"`
	IdleTimeout  int      `mapstructure:"idle_timeout_seconds"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type MongoConfig struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	MaxPoolSize    uint64 `mapstructure:"max_pool_size"`
	ConnectTimeout int    `mapstructure:"connect_timeout_seconds"`
}

type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            string `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time_seconds"`
}

type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	LoginRatePerMinute int           `mapstructure:"login_rate_per_minute"`
	LoginBurst         int           `mapstructure:"login_burst"`
	// TrustForwardedFor keys the login limiter on X-Forwarded-For. Enable
	// only behind a proxy that sets the header.
	TrustForwardedFor bool `mapstructure:"trust_forwarded_for"`
}

type AdminConfig struct {
	Email       string `mapstructure:"email"`
	Password    string `mapstructure:"password"`
	Name        string `mapstructure:"name"`
	SeedOnStart bool   `mapstructure:"seed_on_start"`
}

type GeoIPConfig struct {
	DatabasePath string `mapstructure:"database_path"`
	CacheSize    int    `mapstructure:"cache_size"`
}

type EventsConfig struct {
	Driver       string   `mapstructure:"driver"`
	NATSURL      string   `mapstructure:"nats_url"`
	Subject      string   `mapstructure:"subject"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	Topic        string   `mapstructure:"topic"`
}

type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Load reads the configuration and validates it for serving.
func Load() (*Config, error) {
	config, err := Read()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Read loads config.<ENV>.yaml, when present, and applies environment
// overrides without validating the result.
func Read() (*Config, error) {
	// Get environment from ENV, default to "local"
	env := os.Getenv("ENV")
	if env == "" {
		env = "local"
	}

	v := viper.New()
	setDefaults(v)
	v.Set("env", env)

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.SetConfigType("yaml")
	v.AddConfigPath("/configs")   // Kubernetes mount
	v.AddConfigPath("./configs")  // Docker runtime / repo root
	v.AddConfigPath("../configs") // IDE from cmd/

	// Config file is optional - continue with ENV variables
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma separated lists from the environment arrive as a single element.
	config.Server.CORSOrigins = splitList(config.Server.CORSOrigins)
	config.Events.KafkaBrokers = splitList(config.Events.KafkaBrokers)

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("database.mongo.database", "portfolio")
	v.SetDefault("database.mongo.max_pool_size", 50)
	v.SetDefault("database.mongo.connect_timeout_seconds", 10)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", "5432")
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "postgres")
	v.SetDefault("database.postgres.name", "portfolio")

	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.login_rate_per_minute", 10)
	v.SetDefault("auth.login_burst", 10)

	v.SetDefault("admin.name", "Admin")

	v.SetDefault("geoip.cache_size", 4096)

	v.SetDefault("events.driver", EventsNone)
	v.SetDefault("events.subject", "portfolio.content")
	v.SetDefault("events.topic", "portfolio-content")
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.cors_origins", "CORS_ORIGINS")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.mongo.uri", "MONGODB_URI")
	v.BindEnv("database.mongo.database", "MONGODB_DATABASE")
	v.BindEnv("database.postgres.host", "DB_HOST")
	v.BindEnv("database.postgres.port", "DB_PORT")
	v.BindEnv("database.postgres.user", "DB_USER")
	v.BindEnv("database.postgres.password", "DB_PASSWORD")
	v.BindEnv("database.postgres.name", "DB_NAME")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_ttl", "JWT_EXPIRES_IN")
	v.BindEnv("auth.trust_forwarded_for", "TRUST_FORWARDED_FOR")
	v.BindEnv("admin.email", "ADMIN_EMAIL")
	v.BindEnv("admin.password", "ADMIN_PASSWORD")
	v.BindEnv("admin.name", "ADMIN_NAME")
	v.BindEnv("geoip.database_path", "GEOIP_DATABASE")
	v.BindEnv("events.driver", "EVENTS_DRIVER")
	v.BindEnv("events.nats_url", "NATS_URL")
	v.BindEnv("events.kafka_brokers", "KAFKA_BROKERS")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	v.BindEnv("storage.bucket", "S3_BUCKET")
	v.BindEnv("storage.public_url", "S3_PUBLIC_URL")
	v.BindEnv("telemetry.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (JWT_SECRET) is required")
	}
	switch c.Database.Driver {
	case DriverMongo, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Events.Driver {
	case EventsNone, EventsNATS, EventsKafka:
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}
	return nil
}

func (s ServerConfig) Timeouts() (read, write, idle time.Duration) {
	return time.Duration(s.ReadTimeout) * time.Second,
		time.Duration(s.WriteTimeout) * time.Second,
		time.Duration(s.IdleTimeout) * time.Second
}

func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
