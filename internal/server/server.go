package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"finchat-backend/internal/chart"
	"finchat-backend/internal/config"
	"finchat-backend/internal/db"
	"finchat-backend/internal/handlers"
	"finchat-backend/internal/repositories"
	"finchat-backend/internal/routes"
	"finchat-backend/internal/services"
	"finchat-backend/internal/session"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewServer wires the whole application and returns a ready http.Server.
func NewServer(cfg *config.Config) (*http.Server, error) {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags)

	vectors, err := repositories.NewChromemVectorRepository(cfg.VectorDBDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	registry := initializeRegistry(cfg, logger)

	llm, err := services.NewLLMClient(services.LLMOptions{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Retries: cfg.LLMRetries,
	}, logger)
	if err != nil {
		return nil, err
	}

	embedder, err := services.NewOpenAIEmbedder(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	pageStore, err := services.NewPageStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	textproc := services.NewTextProcessor()
	splitter := services.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	partitioner := services.NewPartitionClient(cfg.PartitionURL, cfg.PartitionAPIKey, logger)
	reranker := services.NewRerankClient(cfg.RerankURL, cfg.RerankModel, logger)

	ingest := services.NewIngestService(partitioner, textproc, splitter, embedder, vectors, registry, pageStore, cfg.UploadDir, logger)
	retrieval := services.NewRetrievalService(textproc, embedder, vectors, reranker, cfg.TopKInitial, cfg.TopKFinal, logger)
	classifier := services.NewQueryClassifier()
	agent := services.NewAgent(llm, cfg.AgentMaxIterations, logger)
	answers := services.NewAnswerService(llm, retrieval, classifier, pageStore, agent,
		time.Duration(cfg.AgentTimeoutSec)*time.Second, logger)

	renderer := chart.NewRenderer(cfg.ChartFontPath)
	charts := chart.NewService(llm, renderer, logger)

	sessions := session.NewManager(cfg.MemoryWindow)

	h := &routes.Handlers{
		Health:    handlers.HealthCheckHandler,
		Home:      handlers.HomeHandler,
		Documents: handlers.NewDocumentHandler(ingest, registry, sessions, cfg.UploadDir, logger),
		Chat:      handlers.NewChatHandler(answers, sessions, logger),
		Visualize: handlers.NewVisualizeHandler(charts, sessions, cfg.UploadDir, logger),
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, h)

	// Add Swagger endpoints
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("http://localhost"+cfg.Addr+"/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	return &http.Server{
		Addr:    cfg.Addr,
		Handler: corsMiddleware(router),
	}, nil
}

// initializeRegistry connects the Redis document registry, falling back to
// the in-memory registry when Redis is unreachable.
func initializeRegistry(cfg *config.Config, logger *log.Logger) repositories.DocumentRegistry {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisClient := db.NewRedisClient(db.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx); err != nil {
		logger.Printf("Redis unavailable (%v), using in-memory document registry", err)
		return repositories.NewMemoryDocumentRegistry()
	}

	logger.Printf("Redis connected at %s:%d", cfg.RedisHost, cfg.RedisPort)
	return repositories.NewRedisDocumentRegistry(redisClient.Client())
}
