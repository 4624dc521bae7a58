package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Language model providers
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

type Config struct {
	DatabaseURL         string
	PollInterval        int // seconds
	MaxRetries          int
	ShutdownTimeout     int // seconds
	GoogleClientID      string
	GoogleClientSecret  string
	LLMProvider         string
	OpenRouterAPIKey    string
	OpenRouterModel     string
	GeminiAPIKey        string
	GeminiModel         string
	LLMRatePerMinute    int
	CompanyConcurrency  int
	MaxCompanies        int
	DefaultLookbackDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	googleClientID := os.Getenv("GOOGLE_CLIENT_ID")
	googleClientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if googleClientID == "" || googleClientSecret == "" {
		fmt.Println("Warning: GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set, token refresh will not work")
	}

	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	if provider == "" {
		provider = ProviderOpenRouter
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		PollInterval:       10, // poll every 10 seconds
		MaxRetries:         3,
		ShutdownTimeout:    30,
		GoogleClientID:     googleClientID,
		GoogleClientSecret: googleClientSecret,
		LLMProvider:        provider,
		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:    os.Getenv("OPENROUTER_MODEL"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        os.Getenv("GEMINI_MODEL"),
	}

	switch provider {
	case ProviderOpenRouter:
		if cfg.OpenRouterAPIKey == "" {
			fmt.Println("Warning: OPENROUTER_API_KEY not set, classification runs will fail")
		}
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			fmt.Println("Warning: GEMINI_API_KEY not set, classification runs will fail")
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"LLM_RATE_PER_MINUTE", 30, &cfg.LLMRatePerMinute},
		{"COMPANY_CONCURRENCY", 1, &cfg.CompanyConcurrency},
		{"MAX_COMPANIES", 15, &cfg.MaxCompanies},
		{"DEFAULT_LOOKBACK_DAYS", 365, &cfg.DefaultLookbackDays},
	}
	for _, v := range ints {
		n, err := positiveInt(v.key, v.def)
		if err != nil {
			return nil, err
		}
		*v.dest = n
	}

	return cfg, nil
}

func positiveInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}
