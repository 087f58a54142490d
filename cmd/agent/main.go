package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/config"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/funnel"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/handler"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/infra/cache"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/infra/llm"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/infra/memstore"
	mongostore "github.com/Shetty-boy/Omnichannel-Agent-AI/internal/infra/mongo"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/infra/observability"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/infra/redisstore"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/infra/resilience"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/port"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("mongo_db", cfg.MongoDB),
		zap.Bool("redis_sessions", cfg.RedisAddr != ""),
		zap.Bool("phraser_enabled", cfg.PhraserEnabled),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "omnichannel-sales-agent")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- MongoDB collaborators ---
	mongoClient, err := mongostore.Connect(context.Background(), cfg.MongoURI)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.MongoDB)

	productCache := cache.New[[]domain.Product](cfg.CacheTTL)
	catalog := mongostore.NewCatalogStore(db, productCache, metrics, logger)
	inventory := mongostore.NewInventoryStore(db, logger)
	orders := mongostore.NewOrderStore(db, logger)
	payments := mongostore.NewPaymentStore(db, logger)
	loyalty := mongostore.NewLoyaltyStore(db, logger)
	postPurchase := mongostore.NewPostPurchaseStore(db, logger)

	// --- Session store ---
	var sessions port.SessionStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		sessions = redisstore.NewSessionStore(redisClient, cfg.SessionTTL, logger)
		logger.Info("using Redis session store", zap.String("addr", cfg.RedisAddr))
	} else {
		sessions = memstore.New(cfg.SessionTTL)
		logger.Warn("REDIS_ADDR not set, sessions are in-memory and will not survive restarts")
	}

	// --- Optional reply phraser ---
	var phraser port.ReplyPhraser
	if cfg.PhraserEnabled {
		phraser = llm.NewPhraser(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.OllamaURL,
			cfg.OllamaModel,
			resilience.NewCircuitBreaker("phraser"),
			resilience.Config{MaxRetries: cfg.MaxRetries, InitialBackoff: cfg.InitialBackoff},
		)
		logger.Info("reply phraser enabled",
			zap.String("ollama_url", cfg.OllamaURL),
			zap.String("model", cfg.OllamaModel),
		)
	}

	// --- Funnel ---
	orchestrator := funnel.NewOrchestrator(catalog, inventory, orders, payments, loyalty, postPurchase, metrics, logger)
	chatSvc := funnel.NewService(orchestrator, sessions, phraser, logger)

	// --- Router ---
	router := handler.NewRouter(chatSvc, sessions, metrics, cfg.JWTSecret, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
