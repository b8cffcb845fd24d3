package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ChannelToken     string
	ChannelAPIBase   string
	WebhookSecret    string
	HTTPPort         string
	DatabaseURL      string
	IntentsPath      string
	GeminiAPIKey     string
	WeatherAPIKey    string
	NewsAPIKey       string
	ReminderInterval time.Duration
	LogLevel         string
}

func Load() (*Config, error) {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		ChannelToken:     getEnv("CHANNEL_TOKEN", ""),
		ChannelAPIBase:   getEnv("CHANNEL_API_BASE", "https://api.telegram.org"),
		WebhookSecret:    getEnv("WEBHOOK_SECRET", ""),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", "assistant_bot.db"),
		IntentsPath:      getEnv("INTENTS_PATH", "intents.yaml"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		WeatherAPIKey:    getEnv("WEATHER_API_KEY", ""),
		NewsAPIKey:       getEnv("NEWS_API_KEY", ""),
		ReminderInterval: time.Duration(getEnvAsInt("REMINDER_INTERVAL_SECONDS", 60)) * time.Second,
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
	}

	if cfg.ChannelToken == "" {
		return nil, fmt.Errorf("CHANNEL_TOKEN environment variable is required")
	}

	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
