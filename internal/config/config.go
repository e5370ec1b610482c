package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI     string
	DBName       string
	JWTSecret    string
	JWTExpiresIn string
	Port         string
	GinMode      string
	CORSOrigins  []string
	MaxFileSize  int64
	BcryptCost   int

	// Media host (Cloudinary)
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryFolder       string
	CloudinaryUploadPreset string

	// Gallery
	GalleryPageSize  int
	ViewCacheTTLSecs int

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Webhook shared secrets
	ClerkWebhookSecret   string
	BillingWebhookSecret string

	// Credits granted to a freshly registered account
	StartingCredits int

	// Tracing
	TracingEnabled bool
	OTLPEndpoint   string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017/picvault"),
		DBName:       getEnv("DB_NAME", "picvault"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTExpiresIn: getEnv("JWT_EXPIRES_IN", "24h"),
		Port:         getEnv("PORT", "8080"),
		GinMode:      getEnv("GIN_MODE", "debug"),
		CORSOrigins:  strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		MaxFileSize:  getEnvInt64("MAX_FILE_SIZE", 10485760), // 10MB upload ceiling
		BcryptCost:   getEnvInt("BCRYPT_COST", 12),

		CloudinaryCloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:       getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:       getEnv("CLOUDINARY_FOLDER", "picvault"),
		CloudinaryUploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "picvault"),

		GalleryPageSize:  getEnvInt("GALLERY_PAGE_SIZE", 9),
		ViewCacheTTLSecs: getEnvInt("VIEW_CACHE_TTL", 300),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		// Redis Configuration
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		ClerkWebhookSecret:   getEnv("CLERK_WEBHOOK_SECRET", ""),
		BillingWebhookSecret: getEnv("BILLING_WEBHOOK_SECRET", ""),

		StartingCredits: getEnvInt("STARTING_CREDITS", 10),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required - set it in .env file")
	}

	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required - set them in .env file")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
