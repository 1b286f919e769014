package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-research-be/internal/config"
	"ai-research-be/internal/controller"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/internal/service"
	"ai-research-be/internal/websocket"
	"ai-research-be/pkg/embedding"
	"ai-research-be/pkg/fetch"
	"ai-research-be/pkg/llm/factory"
	"ai-research-be/pkg/research/agent"
	"ai-research-be/pkg/research/retrieval"
	"ai-research-be/pkg/search"

	pktNats "ai-research-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	RunController    controller.IRunController
	AdminController  controller.IAdminController
	HealthController controller.IHealthController

	// Background Services (Exposed for main.go to run)
	WorkerService service.IWorkerService

	// WebSockets
	WebSocketHub *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Initialize Embedding Provider based on Config
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.Gemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// Initialize LLM Provider based on Config
	llmBaseURL := cfg.Ai.OllamaBaseURL
	if cfg.Ai.LLMProvider == "openai" {
		llmBaseURL = cfg.Ai.OpenAIBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL,
		cfg.Keys.OpenAI,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/run_events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Retrieval stack
	var searchProviders []search.SearchProvider
	if cfg.Keys.Brave != "" {
		searchProviders = append(searchProviders, search.NewBraveProvider(cfg.Keys.Brave))
	}
	if cfg.Keys.Serper != "" {
		searchProviders = append(searchProviders, search.NewSerperProvider(cfg.Keys.Serper))
	}
	if cfg.Keys.Exa != "" {
		searchProviders = append(searchProviders, search.NewExaProvider(cfg.Keys.Exa))
	}
	// Keyless providers are always available.
	searchProviders = append(searchProviders,
		search.NewGitHubProvider(cfg.Keys.GitHubToken),
		search.NewArxivProvider(),
	)
	aggregator := search.NewAggregator(searchProviders, cfg.Retrieval.PreferredProvider)

	quotaGate := service.NewQuotaGate(uowFactory, cfg.Fetch.ReaderDailyLimit, cfg.Fetch.ReaderDailyTokensCap)
	fetcher := fetch.NewFetcher(
		time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second,
		quotaGate,
		cfg.Fetch.ReaderEnabled,
		cfg.Keys.Jina,
	)

	vectorIndex := service.NewVectorIndex(uowFactory, embeddingProvider, cfg.Retrieval.MinSimilarity)
	merger := retrieval.NewMerger(vectorIndex, aggregator, fetcher, retrieval.Config{
		TopK:             cfg.Retrieval.TopK,
		HighScoreThresh:  cfg.Retrieval.HighScoreThresh,
		MinHighScoreHits: cfg.Retrieval.MinHighScoreHits,
		WebSearchCount:   cfg.Retrieval.WebSearchCount,
		MaxWebFetch:      cfg.Retrieval.MaxWebFetch,
	})

	researchAgent := agent.NewAgent(llmProvider)

	// 4. Services
	eventService := service.NewEventService(uowFactory, natsPub, rdb, sysLogger)
	orchestratorService := service.NewOrchestratorService(uowFactory, researchAgent, merger, eventService, sysLogger)
	publisherService := service.NewPublisherService(cfg.App.ExecuteRunTopic, pubSub)
	runService := service.NewRunService(uowFactory, orchestratorService, eventService, publisherService, sysLogger)
	workerService := service.NewWorkerService(pubSub, cfg.App.ExecuteRunTopic, orchestratorService, sysLogger)

	// 5. Controllers
	return &Container{
		RunController:    controller.NewRunController(runService, wsHub),
		AdminController:  controller.NewAdminController(sysLogger),
		HealthController: controller.NewHealthController(db),

		WorkerService: workerService,
		WebSocketHub:  wsHub,
		Logger:        sysLogger,
	}
}
