package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Retrieval RetrievalConfig
	Fetch     FetchConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	ExecuteRunTopic    string
	TracingEnabled     bool
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	Brave       string
	Serper      string
	Exa         string
	GitHubToken string
	Jina        string
	Gemini      string
	OpenAI      string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "openai"
	LLMModel          string
	OpenAIBaseURL     string // any OpenAI-compatible endpoint
}

type RetrievalConfig struct {
	TopK              int
	HighScoreThresh   float64
	MinHighScoreHits  int
	MinSimilarity     float64
	WebSearchCount    int
	MaxWebFetch       int
	PreferredProvider string // search provider tried first
}

type FetchConfig struct {
	TimeoutSeconds       int
	ReaderEnabled        bool
	ReaderDailyLimit     int
	ReaderDailyTokensCap int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			ExecuteRunTopic:    getEnv("EXECUTE_RUN_TOPIC_NAME", "EXECUTE_RUN"),
			TracingEnabled:     getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			Brave:       getEnv("BRAVE_API_KEY", ""),
			Serper:      getEnv("SERPER_API_KEY", ""),
			Exa:         getEnv("EXA_API_KEY", ""),
			GitHubToken: getEnv("GITHUB_TOKEN", ""),
			Jina:        getEnv("JINA_API_KEY", ""),
			Gemini:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAI:      getEnv("OPENAI_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		},
		Retrieval: RetrievalConfig{
			TopK:              getEnvAsInt("RETRIEVAL_TOP_K", 6),
			HighScoreThresh:   getEnvAsFloat("RETRIEVAL_HIGH_SCORE_THRESHOLD", 0.85),
			MinHighScoreHits:  getEnvAsInt("RETRIEVAL_MIN_HIGH_SCORE_HITS", 2),
			MinSimilarity:     getEnvAsFloat("RETRIEVAL_MIN_SIMILARITY", 0.3),
			WebSearchCount:    getEnvAsInt("RETRIEVAL_WEB_SEARCH_COUNT", 8),
			MaxWebFetch:       getEnvAsInt("RETRIEVAL_MAX_WEB_FETCH", 5),
			PreferredProvider: getEnv("SEARCH_SOURCE", "brave"),
		},
		Fetch: FetchConfig{
			TimeoutSeconds:       getEnvAsInt("FETCH_TIMEOUT_SECONDS", 30),
			ReaderEnabled:        getEnvAsBool("JINA_READER_ENABLED", true),
			ReaderDailyLimit:     getEnvAsInt("JINA_DAILY_LIMIT_COUNT", 100),
			ReaderDailyTokensCap: getEnvAsInt("JINA_DAILY_LIMIT_TOKENS", 1000000),
		},
	}
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
