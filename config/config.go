package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	APIBaseURL string `mapstructure:"API_BASE_URL"`
	APIToken   string `mapstructure:"API_TOKEN"`
	Env        string `mapstructure:"ENV"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	// Booking lifecycle tuning.
	PollIntervalSeconds  int `mapstructure:"POLL_INTERVAL_SECONDS"`
	PollMaxAttempts      int `mapstructure:"POLL_MAX_ATTEMPTS"`
	AcceptanceWindowSecs int `mapstructure:"ACCEPTANCE_WINDOW_SECONDS"`

	// Outbound request pacing (requests per second against the backend).
	RequestsPerSecond float64 `mapstructure:"REQUESTS_PER_SECOND"`

	// Redis configuration (draft cache and reminder queue).
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisDraftDB         int    `mapstructure:"REDIS_DRAFT_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// Cloudinary credentials for attachment upload.
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`

	// Local listener that receives the payment gateway's return redirect.
	CallbackAddr string `mapstructure:"CALLBACK_ADDR"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("API_BASE_URL", "http://localhost:8080/api/v1")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("POLL_INTERVAL_SECONDS", 3)
	viper.SetDefault("POLL_MAX_ATTEMPTS", 40)
	viper.SetDefault("ACCEPTANCE_WINDOW_SECONDS", 120)
	viper.SetDefault("REQUESTS_PER_SECOND", 5.0)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DRAFT_DB", 0)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 3)
	viper.SetDefault("CALLBACK_ADDR", "127.0.0.1:7171")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
