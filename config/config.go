package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Config is the process-wide configuration, loaded once at startup from the
// environment (godotenv has already merged .env by then).
type Config struct {
	Port string
	Env  string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	JWTSecret       string
	FrontendBaseURL string

	PaymentSecretKey     string
	PaymentWebhookSecret string
	PaymentBaseURL       string
	PaymentCurrency      string

	SMSAccountID string
	SMSAuthToken string
	SMSFrom      string
	SMSBaseURL   string

	ChatAPIKey  string
	ChatBaseURL string
	ChatModel   string
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("APP_ENV", "development"),

		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBName:     getEnv("DB_NAME", "qrorder"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		FrontendBaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),

		PaymentSecretKey:     getEnv("PAYMENT_SECRET_KEY", ""),
		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		PaymentBaseURL:       getEnv("PAYMENT_BASE_URL", ""),
		PaymentCurrency:      getEnv("PAYMENT_CURRENCY", "usd"),

		SMSAccountID: getEnv("SMS_ACCOUNT_ID", ""),
		SMSAuthToken: getEnv("SMS_AUTH_TOKEN", ""),
		SMSFrom:      getEnv("SMS_FROM", ""),
		SMSBaseURL:   getEnv("SMS_BASE_URL", ""),

		ChatAPIKey:  getEnv("CHAT_API_KEY", ""),
		ChatBaseURL: getEnv("CHAT_BASE_URL", ""),
		ChatModel:   getEnv("CHAT_MODEL", "gpt-4o-mini"),
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	return db, nil
}
