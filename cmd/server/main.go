package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/chat"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/database"
	"portfolio-backend/internal/flags"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/interactionlog"
	"portfolio-backend/internal/knowledge"
	"portfolio-backend/internal/llm"
	"portfolio-backend/internal/metrics"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/ratelimit"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/repository/sqlite"
	"portfolio-backend/internal/router"
	"portfolio-backend/internal/telemetry"
	"portfolio-backend/internal/websocket"
)

// stores bundles the persistence backends selected by STORE_DRIVER.
type stores struct {
	logs  repository.LogStore
	flags repository.FlagStore
	close func()
}

func main() {
	log.Println("🚀 Starting Portfolio Backend...")

	// ──── Step 1: Load Configuration ────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("✗ Configuration invalid: %v", err)
	}
	logger := newLogger(cfg.Env)
	slog.SetDefault(logger)
	log.Println("✓ Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer("portfolio-backend", cfg.TracingEnabled, logger)
	if err != nil {
		log.Fatalf("✗ Tracing initialization failed: %v", err)
	}

	// ──── Step 2: Open Log and Flag Stores ────
	st, err := openStores(cfg)
	if err != nil {
		log.Fatalf("✗ Store initialization failed: %v", err)
	}
	defer st.close()
	log.Printf("✓ %s store ready", cfg.StoreDriver)

	// ──── Step 3: Redis (optional) ────
	var redisClients *database.RedisClients
	if cfg.RedisURL != "" {
		redisClients, err = database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClients.Close()
		log.Println("✓ Redis connected")
	} else {
		log.Println("⚠ REDIS_URL not set, rate limits and live logs are per-process")
	}

	// ──── Step 4: Rate Limiters ────
	policy := ratelimit.FailOpen
	if cfg.RateLimitFailClosed {
		policy = ratelimit.FailClosed
	}
	chatStore, proxyStore := limitStores(ctx, redisClients, cfg.RateLimitWindow)
	onStoreFailure := func(error) { metrics.RateLimitStoreFailures.Inc() }
	chatLimiter := ratelimit.New(chatStore, cfg.RateLimitMax, cfg.RateLimitWindow, policy, logger)
	chatLimiter.OnStoreFailure = onStoreFailure
	proxyLimiter := ratelimit.New(proxyStore, cfg.RateLimitMax, cfg.RateLimitWindow, policy, logger)
	proxyLimiter.OnStoreFailure = onStoreFailure
	log.Printf("✓ Rate limiter ready (%d per %s, %s)", cfg.RateLimitMax, cfg.RateLimitWindow, policy)

	// ──── Step 5: Identity ────
	identity := buildIdentity(ctx, cfg, logger)

	// ──── Step 6: LLM Providers ────
	completer, synthesizer, closeProviders, err := buildProviders(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("✗ LLM provider initialization failed: %v", err)
	}
	defer closeProviders()
	log.Printf("✓ %s completion provider ready", cfg.LLMProvider)

	// ──── Step 7: Knowledge ────
	knowledgeRepo := knowledge.NewRepository(knowledge.NewFileSource(cfg.KnowledgeDir), cfg.KnowledgeTTL, logger)
	if cfg.KnowledgeRefreshCron != "" {
		warmer, err := knowledge.NewWarmer(knowledgeRepo, cfg.KnowledgeRefreshCron, logger)
		if err != nil {
			log.Fatalf("✗ Knowledge warmer invalid: %v", err)
		}
		warmer.Start()
		defer warmer.Stop()
		log.Printf("✓ Knowledge warmer scheduled (%s)", cfg.KnowledgeRefreshCron)
	}
	log.Printf("✓ Knowledge served from %s", cfg.KnowledgeDir)

	// ──── Step 8: Audit Log, Flags, Live Stream ────
	var pubsub *redis.Client
	if redisClients != nil {
		pubsub = redisClients.PubSub
	}
	hub := websocket.NewHub(pubsub, identity, cfg.FrontendURL, logger)
	recorder := interactionlog.NewRecorder(st.logs, hub, logger)
	flagService := flags.NewService(st.flags, map[models.FlagKey]bool{
		models.FlagShowProjectSlider: cfg.ShowProjectSlider,
	}, logger)
	log.Println("✓ Interaction log and WebSocket hub started")

	// ──── Step 9: Chat Pipeline ────
	orchestrator := chat.New(chat.Deps{
		Identity:      identity,
		Limiter:       chatLimiter,
		Knowledge:     knowledgeRepo,
		Flags:         flagService,
		Audit:         recorder,
		Completer:     completer,
		Synthesizer:   synthesizer,
		HasCredential: cfg.HasCompletionCredential,
		Logger:        logger,
	})

	// ──── Step 10: Start HTTP Server ────
	r := router.New(router.Options{
		Identity:            identity,
		ProxyLimiter:        proxyLimiter,
		Chat:                handlers.NewChatHandler(orchestrator),
		Knowledge:           handlers.NewKnowledgeHandler(knowledgeRepo, logger),
		Proxy:               handlers.NewProxyHandler(completer, synthesizer, cfg.HasCompletionCredential, cfg.HasSpeechCredential, logger),
		Admin:               handlers.NewAdminHandler(recorder, flagService, logger),
		Hub:                 hub,
		FrontendURL:         cfg.FrontendURL,
		RequireAuthForAbout: cfg.RequireAuthForAbout,
		Logger:              logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      otelhttp.NewHandler(r, "portfolio-backend"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	log.Printf("✓ Portfolio Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/admin/llm-logs/stream", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

func newLogger(env string) *slog.Logger {
	if env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func openStores(cfg *config.Config) (*stores, error) {
	if cfg.StoreDriver == "sqlite" {
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s := sqlite.New(db)
		return &stores{logs: s, flags: s, close: func() { db.Close() }}, nil
	}

	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(pool, database.Migrations()); err != nil {
		pool.Close()
		return nil, err
	}
	return &stores{
		logs:  repository.NewLogRepo(pool),
		flags: repository.NewFlagRepo(pool),
		close: pool.Close,
	}, nil
}

// limitStores returns separate buckets for the chat pipeline and the
// provider proxies, shared across instances when Redis is configured.
func limitStores(ctx context.Context, clients *database.RedisClients, window time.Duration) (ratelimit.Store, ratelimit.Store) {
	if clients != nil {
		return ratelimit.NewRedisStore(clients.Limiter, "ratelimit:chat"),
			ratelimit.NewRedisStore(clients.Limiter, "ratelimit:proxy")
	}
	chatStore, proxyStore := ratelimit.NewMemoryStore(), ratelimit.NewMemoryStore()
	chatStore.StartSweeper(ctx, window)
	proxyStore.StartSweeper(ctx, window)
	return chatStore, proxyStore
}

func buildIdentity(ctx context.Context, cfg *config.Config, logger *slog.Logger) auth.Verifier {
	var chain auth.Chain
	if cfg.SupabaseJWKSURL != "" {
		v, err := auth.NewSupabaseVerifier(ctx, cfg.SupabaseJWKSURL, logger)
		if err != nil {
			log.Fatalf("✗ Supabase JWKS initialization failed: %v", err)
		}
		chain = append(chain, v)
		log.Println("✓ Supabase session verification enabled")
	}
	if cfg.JWTSecret != "" {
		chain = append(chain, auth.NewSecretVerifier(cfg.JWTSecret))
		log.Println("✓ Shared-secret session verification enabled")
	}
	if len(chain) == 0 {
		log.Println("⚠ No identity provider configured, admin routes will reject every request")
		return nil
	}
	return chain
}

func buildProviders(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.Completer, llm.Synthesizer, func(), error) {
	openai := llm.NewOpenAIClient(cfg.OpenAIAPIKey,
		llm.WithBaseURL(cfg.OpenAIAPIURL),
		llm.WithChatModel(cfg.OpenAIChatModel),
		llm.WithSpeechModel(cfg.OpenAITTSModel, cfg.OpenAITTSVoice),
	)

	var completer llm.Completer = openai
	closeFn := func() {}
	if cfg.LLMProvider == "gemini" {
		gemini, err := llm.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		completer = gemini
		closeFn = func() { gemini.Close() }
	}

	budget, err := llm.NewContextBudget(cfg.LLMMaxContextTokens, logger)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	pacer := llm.NewPacer(cfg.LLMRequestsPerMin)

	completer = llm.InstrumentCompleter(llm.PaceCompleter(llm.LimitContext(completer, budget), pacer), cfg.LLMProvider)
	synthesizer := llm.InstrumentSynthesizer(llm.PaceSynthesizer(openai, pacer), "openai")
	return completer, synthesizer, closeFn, nil
}
