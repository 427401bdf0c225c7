package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Risk     RiskConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port         string
	Env          string
	LogLevel     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RiskConfig controls the decision engine itself: the feature window, the
// classifier parameter file, and the administrative surface.
type RiskConfig struct {
	WindowMinutes      int
	ModelPath          string
	AdminKey           string
	DefaultApplication string
	RetentionDays      int // 0 disables the retention sweep
	SweepInterval      time.Duration
}

// FrontendConfig configures the login portal, which talks to the decision
// engine over HTTP.
type FrontendConfig struct {
	Port            string
	Env             string
	GuardURL        string
	GuardTimeout    time.Duration
	ChallengeSecret string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	adminKey := getEnv("ADMIN_KEY", "")
	if adminKey == "" {
		return nil, fmt.Errorf("ADMIN_KEY is required")
	}

	cfg := &Config{
		Database: loadDatabaseConfig(),
		Server: ServerConfig{
			Port:         getEnv("PORT", "5001"),
			Env:          getEnv("ENV", "development"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Risk: RiskConfig{
			WindowMinutes:      getEnvAsInt("RISK_WINDOW_MINUTES", 10),
			ModelPath:          getEnv("RISK_MODEL_PATH", "model.json"),
			AdminKey:           adminKey,
			DefaultApplication: getEnv("RISK_DEFAULT_APPLICATION", "default"),
			RetentionDays:      getEnvAsInt("RISK_RETENTION_DAYS", 30),
			SweepInterval:      getEnvAsDuration("RISK_SWEEP_INTERVAL", 1*time.Hour),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if cfg.Risk.WindowMinutes <= 0 {
		return nil, fmt.Errorf("RISK_WINDOW_MINUTES must be positive (got %d)", cfg.Risk.WindowMinutes)
	}

	// Pruning inside the feature window would change live scores.
	if cfg.Risk.RetentionDays > 0 && cfg.Risk.Retention() < cfg.Risk.Window() {
		return nil, fmt.Errorf("RISK_RETENTION_DAYS must cover the feature window")
	}

	return cfg, nil
}

// LoadFrontend loads configuration for the enforcement front end. It has no
// database of its own; everything it knows about an address comes from the
// decision engine.
func LoadFrontend() (*FrontendConfig, error) {
	_ = godotenv.Load()

	secret := getEnv("CHALLENGE_SECRET", "")
	if secret == "" {
		return nil, fmt.Errorf("CHALLENGE_SECRET is required")
	}
	if len(secret) < 16 {
		return nil, fmt.Errorf("CHALLENGE_SECRET must be at least 16 characters (got %d)", len(secret))
	}

	return &FrontendConfig{
		Port:            getEnv("FRONTEND_PORT", "5000"),
		Env:             getEnv("ENV", "development"),
		GuardURL:        getEnv("GUARD_URL", "http://127.0.0.1:5001/decide"),
		GuardTimeout:    getEnvAsDuration("GUARD_TIMEOUT", 1*time.Second),
		ChallengeSecret: secret,
		ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
	}, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              getEnvAsInt("DB_PORT", 5432),
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", ""),
		Name:              getEnv("DB_NAME", "loginguard"),
		SSLMode:           getEnv("DB_SSLMODE", "disable"),
		MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
		MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
		MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
		HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
	}
}

// Window returns the feature window as a duration.
func (r *RiskConfig) Window() time.Duration {
	return time.Duration(r.WindowMinutes) * time.Minute
}

// Retention returns the ledger retention horizon as a duration.
func (r *RiskConfig) Retention() time.Duration {
	return time.Duration(r.RetentionDays) * 24 * time.Hour
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
