package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Port        string
	LogLevel    slog.Level

	DatabaseURL     string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	DBConnMaxLife   time.Duration
	AutoMigrate     bool
	RedisURL        string
	KafkaBrokers    []string
	KafkaGroup      string
	ShutdownTimeout time.Duration

	Casdoor CasdoorConfig
	Auth    AuthConfig
	Exam    ExamConfig
}

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

// Enabled reports whether admin tokens issued by Casdoor are accepted.
func (c CasdoorConfig) Enabled() bool {
	return c.Endpoint != "" && c.Cert != ""
}

type AuthConfig struct {
	TokenSecret     string
	StudentTokenTTL time.Duration
	AdminTokenTTL   time.Duration

	// Seeded on startup when no admin with this email exists.
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	BootstrapAdminName     string
}

type ExamConfig struct {
	SubmitGrace   time.Duration
	SweepInterval time.Duration
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		Port:            getEnv("PORT", "8080"),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:  getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLife:   getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		RedisURL:        getEnv("REDIS_URL", ""),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaGroup:      getEnv("KAFKA_CONSUMER_GROUP", "cbt-audit"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Casdoor: CasdoorConfig{
			Endpoint:     getEnv("CASDOOR_ENDPOINT", ""),
			ClientID:     getEnv("CASDOOR_CLIENT_ID", ""),
			ClientSecret: getEnv("CASDOOR_CLIENT_SECRET", ""),
			Cert:         getEnv("CASDOOR_CERT", ""),
			Organization: getEnv("CASDOOR_ORGANIZATION", ""),
			Application:  getEnv("CASDOOR_APPLICATION", ""),
		},
		Auth: AuthConfig{
			TokenSecret:            getEnv("AUTH_TOKEN_SECRET", ""),
			StudentTokenTTL:        getEnvDuration("STUDENT_TOKEN_TTL", 6*time.Hour),
			AdminTokenTTL:          getEnvDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
			BootstrapAdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
			BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
			BootstrapAdminName:     getEnv("BOOTSTRAP_ADMIN_NAME", "Administrator"),
		},
		Exam: ExamConfig{
			SubmitGrace:   getEnvDuration("EXAM_SUBMIT_GRACE", 2*time.Minute),
			SweepInterval: getEnvDuration("EXAM_SWEEP_INTERVAL", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var problems []string
	if c.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if len(c.Auth.TokenSecret) < 16 {
		problems = append(problems, "AUTH_TOKEN_SECRET must be at least 16 characters")
	}
	if c.Exam.SubmitGrace < 0 {
		problems = append(problems, "EXAM_SUBMIT_GRACE cannot be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
