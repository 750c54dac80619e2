package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Auth     AuthConfig
	Lockout  LockoutConfig
	TOTP     TOTPConfig
	Cookie   CookieConfig
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

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ServerConfig struct {
	Port               string
	Env                string
	LogLevel           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	TrustedProxies     []string
	AuthRequestsPerMin int
}

type AuthConfig struct {
	JWTSecret          string
	TokenIssuer        string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	CleanupInterval    time.Duration
	BcryptCost         int
}

type LockoutConfig struct {
	LockThreshold  int
	BlockThreshold int
	LockDuration   time.Duration
}

type TOTPConfig struct {
	Issuer        string
	EncryptionKey []byte
	EnrollmentTTL time.Duration
	MaxAttempts   int
	AttemptWindow time.Duration
}

type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	totpKey, err := decodeEncryptionKey(getEnv("TOTP_ENCRYPTION_KEY", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "fieldauth"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			Env:                env,
			LogLevel:           getEnv("LOG_LEVEL", "info"),
			ReadTimeout:        getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:        getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			TrustedProxies:     getEnvAsList("TRUSTED_PROXIES"),
			AuthRequestsPerMin: getEnvAsInt("AUTH_RATE_LIMIT_PER_MINUTE", 10),
		},
		Auth: AuthConfig{
			JWTSecret:          jwtSecret,
			TokenIssuer:        getEnv("TOKEN_ISSUER", "fieldauth"),
			AccessTokenExpiry:  getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: getEnvAsDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
			CleanupInterval:    getEnvAsDuration("TOKEN_CLEANUP_INTERVAL", 1*time.Hour),
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
		},
		Lockout: LockoutConfig{
			LockThreshold:  getEnvAsInt("LOCKOUT_THRESHOLD", 5),
			BlockThreshold: getEnvAsInt("BLOCK_THRESHOLD", 10),
			LockDuration:   getEnvAsDuration("LOCKOUT_DURATION", 30*time.Minute),
		},
		TOTP: TOTPConfig{
			Issuer:        getEnv("TOTP_ISSUER", "FieldAuth"),
			EncryptionKey: totpKey,
			EnrollmentTTL: getEnvAsDuration("ENROLLMENT_TTL", 10*time.Minute),
			MaxAttempts:   getEnvAsInt("TOTP_MAX_ATTEMPTS", 5),
			AttemptWindow: getEnvAsDuration("TOTP_ATTEMPT_WINDOW", 15*time.Minute),
		},
		Cookie: CookieConfig{
			Domain:   getEnv("COOKIE_DOMAIN", ""),
			Secure:   getEnvAsBool("COOKIE_SECURE", env == "production"),
			SameSite: strings.ToLower(getEnv("COOKIE_SAMESITE", "strict")),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if cfg.Lockout.LockThreshold < 1 || cfg.Lockout.BlockThreshold < cfg.Lockout.LockThreshold {
		return nil, fmt.Errorf("BLOCK_THRESHOLD (%d) must be >= LOCKOUT_THRESHOLD (%d) >= 1",
			cfg.Lockout.BlockThreshold, cfg.Lockout.LockThreshold)
	}
	if cfg.Lockout.LockDuration < time.Minute {
		return nil, fmt.Errorf("LOCKOUT_DURATION must be at least 1m")
	}
	if cfg.TOTP.MaxAttempts < 1 {
		return nil, fmt.Errorf("TOTP_MAX_ATTEMPTS must be at least 1")
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}
	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func decodeEncryptionKey(value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("TOTP_ENCRYPTION_KEY is required")
	}
	key, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("TOTP_ENCRYPTION_KEY must be base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("TOTP_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
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

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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

func getEnvAsList(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
