package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	SessionSecret     string
	JWTSecret         string
	JWTExpiration     time.Duration
	PrincipalCacheTTL time.Duration
	GinMode           string
	Port              string
	LogLevel          string
	OpenAIAPIKey      string
}

// Load reads the configuration from the environment. Variables in a .env file
// in the working directory are used when not already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:          getEnv("DB_DRIVER", "mysql"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBUser:            getEnv("DB_USER", "devbridge"),
		DBPassword:        getEnv("DB_PASSWORD", "devbridge"),
		DBName:            getEnv("DB_NAME", "dev_bridge_manager"),
		DBPath:            getEnv("DB_PATH", "dev_bridge_manager.db"),
		RedisHost:         getEnv("REDIS_HOST", "localhost"),
		RedisPort:         getEnv("REDIS_PORT", "6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		SessionSecret:     getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		JWTSecret:         getEnv("JWT_SECRET", "default-jwt-secret-change-me"),
		JWTExpiration:     time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		PrincipalCacheTTL: getEnvDuration("PRINCIPAL_CACHE_TTL", 5*time.Minute),
		GinMode:           getEnv("GIN_MODE", "debug"),
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
	}
}

// RedisAddr is the host:port of the redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}
