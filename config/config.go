package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BaseURL         string
	AppID           string
	AppSecret       string
	CredentialsPath string
	ProxyURL        string
	ServerPort      string
	CacheDuration   int // минуты
	HTTPTimeout     int // секунды, 0 - без таймаута
	LogLevel        string
	LogFormat       string
	AllowedOrigins  []string
	TrustedProxies  []string
	RateLimitRPS    float64
	RateLimitBurst  int
	ValkeyAddr      string
	DefaultLat      float64
	DefaultLng      float64
}

func Load() (*Config, error) {
	// Загружаем .env файл если существует
	godotenv.Load()

	config := &Config{
		BaseURL:         getEnv("ASTRONOMY_API_BASE_URL", "https://api.astronomyapi.com/api/v2"),
		AppID:           getEnv("ASTRONOMY_APP_ID", ""),
		AppSecret:       getEnv("ASTRONOMY_APP_SECRET", ""),
		CredentialsPath: getEnv("CREDENTIALS_PATH", ""),
		ProxyURL:        getEnv("PROXY_URL", ""),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		CacheDuration:   getEnvAsInt("CACHE_DURATION", 10),
		HTTPTimeout:     getEnvAsInt("HTTP_TIMEOUT", 30),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS"),
		TrustedProxies:  getEnvAsList("TRUSTED_PROXIES"),
		RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 5),
		ValkeyAddr:      getEnv("VALKEY_ADDR", ""),
		DefaultLat:      getEnvAsFloat("DEFAULT_LATITUDE", 33.775867),
		DefaultLng:      getEnvAsFloat("DEFAULT_LONGITUDE", -84.39733),
	}

	if config.CacheDuration < 0 {
		return nil, fmt.Errorf("CACHE_DURATION не может быть отрицательным")
	}
	if config.HTTPTimeout < 0 {
		return nil, fmt.Errorf("HTTP_TIMEOUT не может быть отрицательным")
	}

	return config, nil
}

// ApplyCredentials подставляет сохраненные учетные данные, если они не заданы
// через окружение.
func (c *Config) ApplyCredentials(creds Credentials) {
	if c.AppID == "" {
		c.AppID = creds.AppID
	}
	if c.AppSecret == "" {
		c.AppSecret = creds.AppSecret
	}
}

// Validate проверяет, что клиенту есть чем авторизоваться: либо свои учетные
// данные, либо прокси.
func (c *Config) Validate() error {
	if c.ProxyURL != "" {
		return nil
	}
	if c.AppID == "" || c.AppSecret == "" {
		return fmt.Errorf("необходимы ASTRONOMY_APP_ID и ASTRONOMY_APP_SECRET (или команда login), либо PROXY_URL")
	}
	return nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheDuration) * time.Minute
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

func getEnvAsList(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
