package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI        string
	DBName          string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Port            string

	// RedisURL switches order numbering to Redis counters when set.
	RedisURL string

	OrderStatusGuard   bool
	LegacyUserIDAuth   bool
	PriceTolerance     float64
	OrderRatePerMinute int
	DeliveryWindow     time.Duration

	UploadDir     string
	PublicBaseURL string

	PaymentKeyID     string
	PaymentKeySecret string
	PaymentAPIURL    string
}

// PaymentsEnabled reports whether gateway credentials are configured.
func (c Config) PaymentsEnabled() bool {
	return c.PaymentKeyID != "" && c.PaymentKeySecret != ""
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() Config {
	return Config{
		MongoURI:           getEnvOrDefault("MONGO_URI", ""),
		DBName:             getEnvOrDefault("DB_NAME", "storefront"),
		JWTSecret:          getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:     getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		RefreshTokenTTL:    getDurationEnv("REFRESH_TOKEN_TTL", 7, 24*time.Hour),
		Port:               getEnvOrDefault("PORT", "8080"),
		RedisURL:           getEnvOrDefault("REDIS_URL", ""),
		OrderStatusGuard:   getBoolEnv("ORDER_STATUS_GUARD", true),
		LegacyUserIDAuth:   getBoolEnv("LEGACY_USERID_AUTH", false),
		PriceTolerance:     getFloatEnv("PRICE_TOLERANCE", 0.01),
		OrderRatePerMinute: getIntEnv("ORDER_RATE_PER_MINUTE", 30),
		DeliveryWindow:     getDurationEnv("DELIVERY_WINDOW", 45, time.Minute),
		UploadDir:          getEnvOrDefault("UPLOAD_DIR", "public/uploads"),
		PublicBaseURL:      strings.TrimRight(getEnvOrDefault("PUBLIC_BASE_URL", ""), "/"),
		PaymentKeyID:       getEnvOrDefault("PAYMENT_KEY_ID", ""),
		PaymentKeySecret:   getEnvOrDefault("PAYMENT_KEY_SECRET", ""),
		PaymentAPIURL:      getEnvOrDefault("PAYMENT_API_URL", "https://api.razorpay.com/v1"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
