package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	DefaultEngine  string
	DefaultSchema  string
	RequestTimeout time.Duration
	LogLevel       string

	TelegramToken string
	WebhookURL    string

	DatabaseURL string
	RedisAddr   string
	CacheTTL    time.Duration
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if v, err := strconv.Atoi(getEnv(k, "")); err == nil && v > 0 {
		return v
	}
	return def
}

// Load читает окружение; .env (если есть) подгружается первым и не перекрывает уже заданные переменные.
// Ключи вендоров необязательны: пользователь может прислать свой.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		DefaultEngine:  getEnv("DEFAULT_ENGINE", "gemini"),
		DefaultSchema:  getEnv("DEFAULT_SCHEMA", "v2"),
		RequestTimeout: time.Duration(getInt("REQUEST_TIMEOUT_SEC", 180)) * time.Second,
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:    getEnv("WEBHOOK_URL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		CacheTTL:    time.Duration(getInt("CACHE_TTL_HOURS", 24)) * time.Hour,
	}
}
