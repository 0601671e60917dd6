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

const (
	StorageDriverLocal = "local"
	StorageDriverR2    = "r2"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL      string
	DBConnectTimeout time.Duration
	DBMaxOpenConns   int
	JWTSecretKey     string
	TokenTTL         time.Duration
	ServerPort       int
	AppURL           string

	LogLevel  string
	LogFormat string

	StorageDriver     string
	StorageLocalRoot  string
	StoragePublicPath string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
	R2Endpoint        string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CORSAllowedOrigins []string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файлы (полезно для локальной разработки).
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug("env file not loaded, using process environment", slog.Any("files", envFiles))
	}

	dbURL, err := getEnvRequired("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	jwtKey, err := getEnvRequired("JWT_SECRET_KEY")
	if err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(getEnvWithDefault("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	maxOpenConns, err := strconv.Atoi(getEnvWithDefault("DB_MAX_OPEN_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS environment variable: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvWithDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB environment variable: %w", err)
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		DBConnectTimeout:  getEnvAsDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		DBMaxOpenConns:    maxOpenConns,
		JWTSecretKey:      jwtKey,
		TokenTTL:          getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
		ServerPort:        port,
		AppURL:            strings.TrimRight(getEnvWithDefault("APP_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat:         getEnvWithDefault("LOG_FORMAT", "json"),
		StorageDriver:     strings.ToLower(getEnvWithDefault("STORAGE_DRIVER", StorageDriverLocal)),
		StorageLocalRoot:  getEnvWithDefault("STORAGE_LOCAL_ROOT", "storage/app/public"),
		StoragePublicPath: getEnvWithDefault("STORAGE_PUBLIC_PATH", "/storage"),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		R2Endpoint:        os.Getenv("R2_ENDPOINT"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	switch cfg.StorageDriver {
	case StorageDriverLocal:
	case StorageDriverR2:
		if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicBaseURL == "" {
			return nil, fmt.Errorf("STORAGE_DRIVER=r2 requires R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME and R2_PUBLIC_BASE_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s environment variable is not set", key)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return duration
}
