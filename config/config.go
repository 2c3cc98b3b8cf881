package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Media backends understood by storage.NewMediaStore.
const (
	MediaBackendDB    = "db"
	MediaBackendMinio = "minio"
)

// Config stores the application configuration.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis. An empty RedisHost disables the prediction cache.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MediaBackend   string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string

	JWTSecret string
	AdminKey  string

	EmotionAPIURL     string
	EmotionTimeout    time.Duration
	EmotionRetries    int
	EmotionRetryDelay time.Duration
	EmotionCacheTTL   time.Duration

	MaxUploadSize    int64 // per file, bytes
	WebDir           string
	DefaultImagePath string

	LogLevel      string
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() *Config {
	return &Config{
		Port: getEnv("PORT", "3000"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "moodtune"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MediaBackend:   strings.ToLower(getEnv("MEDIA_BACKEND", MediaBackendDB)),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "moodtune"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		AdminKey:  os.Getenv("ADMIN_KEY"),

		EmotionAPIURL:     getEnv("EMOTION_API_URL", "http://localhost:8000/predict"),
		EmotionTimeout:    getEnvDuration("EMOTION_TIMEOUT", 10*time.Second),
		EmotionRetries:    getEnvInt("EMOTION_RETRIES", 0),
		EmotionRetryDelay: getEnvDuration("EMOTION_RETRY_DELAY", 500*time.Millisecond),
		EmotionCacheTTL:   getEnvDuration("EMOTION_CACHE_TTL", 10*time.Minute),

		MaxUploadSize:    int64(getEnvInt("MAX_UPLOAD_SIZE", 10<<20)),
		WebDir:           getEnv("WEB_DIR", "web"),
		DefaultImagePath: getEnv("DEFAULT_IMAGE_PATH", "/default-music-image.png"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// Validate reports settings the server cannot run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.MediaBackend {
	case MediaBackendDB, MediaBackendMinio:
	default:
		return errors.New("MEDIA_BACKEND must be \"db\" or \"minio\"")
	}
	if c.MaxUploadSize <= 0 {
		return errors.New("MAX_UPLOAD_SIZE must be positive")
	}
	return nil
}

// RedisEnabled reports whether a Redis host is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}
