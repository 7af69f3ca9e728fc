package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Grpc      GrpcConfig      `mapstructure:"grpc"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Grading   GradingConfig   `mapstructure:"grading"`
	Events    EventsConfig    `mapstructure:"events"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout_seconds"`
	WriteTimeout int      `mapstructure:"write_timeout_seconds"`
	IdleTimeout  int      `mapstructure:"idle_timeout_seconds"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

type GrpcConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
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
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

type AuthConfig struct {
	AdminEmail        string        `mapstructure:"admin_email"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`
	JWTSecret         string        `mapstructure:"jwt_secret"`
	GoogleClientID    string        `mapstructure:"google_client_id"`
	AccessTokenTTL    time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL   time.Duration `mapstructure:"refresh_token_ttl"`
}

// GradingConfig selects the single grading policy of the deployment.
// PassMark and MarksMax only apply to the subject_floor policy.
type GradingConfig struct {
	Policy   string `mapstructure:"policy"`
	PassMark int    `mapstructure:"pass_mark"`
	MarksMax int    `mapstructure:"marks_max"`
}

type EventsConfig struct {
	Driver string      `mapstructure:"driver"`
	NATS   NATSConfig  `mapstructure:"nats"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type ReconcileConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("grpc.port", "9090")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "results")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("auth.admin_email", "")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.google_client_id", "")
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)

	v.SetDefault("grading.policy", "percentage")
	v.SetDefault("grading.pass_mark", 18)
	v.SetDefault("grading.marks_max", 50)

	v.SetDefault("events.driver", "none")
	v.SetDefault("events.nats.url", "nats://localhost:4222")
	v.SetDefault("events.nats.subject", "results.events")
	v.SetDefault("events.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("events.kafka.topic", "results.events")

	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.schedule", "@every 1h")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "otel-collector.infra.svc.cluster.local:4317")
}

func Load() (*Config, error) {
	env := os.Getenv("ENV")
	if env == "" {
		env = "local"
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.SetConfigType("yaml")
	v.AddConfigPath("/configs")   // Kubernetes mount
	v.AddConfigPath("./configs")  // repo root
	v.AddConfigPath("../configs") // IDE from cmd/

	// Config file is optional, ENV alone is enough.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.name", "DB_NAME")
	v.BindEnv("auth.admin_email", "ADMIN_EMAIL")
	v.BindEnv("auth.admin_password_hash", "ADMIN_PASSWORD_HASH")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.google_client_id", "GOOGLE_CLIENT_ID")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Env = env

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	switch c.Grading.Policy {
	case "percentage":
	case "subject_floor":
		if c.Grading.PassMark <= 0 || c.Grading.MarksMax <= 0 || c.Grading.PassMark > c.Grading.MarksMax {
			return fmt.Errorf("grading: pass_mark must be within 1..marks_max")
		}
	default:
		return fmt.Errorf("grading: unknown policy %q", c.Grading.Policy)
	}

	switch c.Events.Driver {
	case "none", "nats", "kafka":
	default:
		return fmt.Errorf("events: unknown driver %q", c.Events.Driver)
	}

	if c.IsLocal() {
		return nil
	}
	if c.Auth.AdminEmail == "" {
		return errors.New("auth: admin_email is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth: jwt_secret is required")
	}
	return nil
}

// IsLocal reports a developer or test run. Every other environment (staging,
// prod) is served over TLS and gets Secure cookies.
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == "test"
}
