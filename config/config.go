package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort     string
	Env            string
	MaxUploadBytes int64

	ExtractionProvider string
	GeminiAPIKey       string
	GeminiModel        string
	OpenAIAPIKey       string
	OpenAIModel        string
	ExtractionTimeout  time.Duration

	DatabaseURL     string
	RedisURL        string
	CacheTTL        time.Duration
	CacheMaxEntries int

	OCRHintsEnabled   bool
	TesseractDataPath string

	CSVHeaderRow bool
}

// LoadConfig reads the service configuration from the environment. A .env
// file in the working directory is loaded first when present; variables
// already set in the environment win.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "4000"),
		Env:            getEnv("APP_ENV", "development"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 50*1024*1024), // 50 MB

		ExtractionProvider: strings.ToLower(getEnv("EXTRACTION_PROVIDER", "gemini")),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		ExtractionTimeout:  getEnvDuration("EXTRACTION_TIMEOUT", 120*time.Second),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		CacheTTL:        getEnvDuration("CACHE_TTL", 24*time.Hour),
		CacheMaxEntries: int(getEnvInt64("CACHE_MAX_ENTRIES", 1000)),

		OCRHintsEnabled:   getEnvBool("OCR_HINTS_ENABLED", false),
		TesseractDataPath: getEnv("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/5/tessdata"),

		CSVHeaderRow: getEnvBool("CSV_HEADER_ROW", true),
	}
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") or a plain number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
