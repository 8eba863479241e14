package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Ai       AIConfig
}

type AppConfig struct {
	Port                 string
	Environment          string
	LogFilePath          string
	CorsAllowedOrigins   string
	NatsURL              string
	RedisURL             string
	ProcessDocumentTopic string
	ChatRateLimit        int // requests per minute per user
	StaleProcessingAfter time.Duration
	StaleSweepCron       string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret          string
	JWTExpiresIn       time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type StorageConfig struct {
	Driver     string // "local" or "gcs"
	UploadPath string
	GCSBucket  string
}

type UploadConfig struct {
	MaxFileSize int64
	ChunkSize   int
}

type AIConfig struct {
	LLMProvider    string // "openai", "huggingface", "ollama", "anthropic", "gemini"
	LLMModel       string
	LLMBaseURL     string
	LLMAPIKey      string
	LLMTemperature float64
	LLMTimeout     time.Duration
	TermsFile      string
}

// defaultModels is used when LLM_MODEL is not set.
var defaultModels = map[string]string{
	"openai":      "gpt-3.5-turbo",
	"huggingface": "meta-llama/Llama-3.1-8B-Instruct",
	"ollama":      "llama3",
	"anthropic":   "claude-3-5-haiku-latest",
	"gemini":      "gemini-2.0-flash",
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	provider := getEnv("LLM_PROVIDER", "openai")
	model := getEnv("LLM_MODEL", "")
	if model == "" {
		model = defaultModels[provider]
	}
	baseURL := getEnv("LLM_BASE_URL", "")
	if provider == "ollama" && baseURL == "" {
		baseURL = getEnv("OLLAMA_BASE_URL", "http://localhost:11434")
	}

	return &Config{
		App: AppConfig{
			Port:                 getEnv("APP_PORT", "5000"),
			Environment:          getEnv("GO_ENV", "development"),
			LogFilePath:          getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:              getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379"),
			ProcessDocumentTopic: getEnv("PROCESS_DOCUMENT_TOPIC", "PROCESS_DOCUMENT"),
			ChatRateLimit:        getEnvAsInt("CHAT_RATE_LIMIT", 30),
			StaleProcessingAfter: getEnvAsDuration("STALE_PROCESSING_AFTER", 30*time.Minute),
			StaleSweepCron:       getEnv("STALE_SWEEP_CRON", "@every 5m"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			JWTExpiresIn:       getEnvAsDuration("JWT_EXPIRES_IN", 7*24*time.Hour),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:5000/api/auth/google/callback"),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "local"),
			UploadPath: getEnv("UPLOAD_PATH", "./uploads"),
			GCSBucket:  getEnv("GCS_BUCKET", ""),
		},
		Upload: UploadConfig{
			MaxFileSize: int64(getEnvAsInt("MAX_FILE_SIZE", 10485760)),
			ChunkSize:   getEnvAsInt("CHUNK_SIZE", 1000),
		},
		Ai: AIConfig{
			LLMProvider:    provider,
			LLMModel:       model,
			LLMBaseURL:     baseURL,
			LLMAPIKey:      getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", "")),
			LLMTemperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			TermsFile:      getEnv("TERMS_FILE", ""),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s", "168h"), falling back on parse errors.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
