package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr     string
	DBPath         string
	PhotoBackend   string
	PhotoPath      string
	PublicBaseURL  string
	MaxUploadBytes int64
	JWTSecret      string
	TokenTTL       time.Duration
	LogLevel       string
	LogFile        string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// ClientConfig configures inspectctl.
type ClientConfig struct {
	APIURL    string
	TokenFile string
	LogLevel  string
}

// Load reads the backend configuration from the environment. A .env file in
// the working directory is applied first when present; variables already set
// in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		DBPath:         getEnv("DB_PATH", "/data/homeinspect.db"),
		PhotoBackend:   getEnv("PHOTO_BACKEND", "local"),
		PhotoPath:      getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenTTL:       getEnvDuration("TOKEN_TTL", 168*time.Hour),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "inspection-images"),
		MinIOUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",

		S3Bucket:    getEnv("S3_BUCKET", "inspection-images"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3PathStyle: os.Getenv("S3_PATH_STYLE") == "true",
	}
}

func LoadClient() *ClientConfig {
	_ = godotenv.Load()

	tokenFile := getEnv("INSPECT_TOKEN_FILE", "")
	if tokenFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			tokenFile = dir + "/inspectctl/token"
		} else {
			tokenFile = ".inspectctl-token"
		}
	}

	return &ClientConfig{
		APIURL:    getEnv("INSPECT_API_URL", "http://localhost:8080"),
		TokenFile: tokenFile,
		LogLevel:  getEnv("LOG_LEVEL", "warn"),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
