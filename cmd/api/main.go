package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"prospectchat_backend/internal/ai/gemini"
	"prospectchat_backend/internal/apikey"
	"prospectchat_backend/internal/config"
	"prospectchat_backend/internal/conversation"
	"prospectchat_backend/internal/conversation/engine"
	"prospectchat_backend/internal/crmsync"
	"prospectchat_backend/internal/db"
	"prospectchat_backend/internal/events"
	apphttp "prospectchat_backend/internal/http"
	"prospectchat_backend/internal/http/router"
	"prospectchat_backend/internal/notification"
	"prospectchat_backend/internal/rag"
	"prospectchat_backend/internal/session"
	"prospectchat_backend/internal/webhook"
	"prospectchat_backend/internal/whatsapp"
	"prospectchat_backend/platform/logger"
	"prospectchat_backend/platform/qdrant"
	"prospectchat_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	sessions, err := session.NewFromURL(cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() {
		_ = sessions.Close()
	}()

	// ========================================================================
	// Collaborators
	// ========================================================================

	gemClient, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Error("failed to initialize gemini client", "error", err)
		panic("failed to initialize gemini client: " + err.Error())
	}

	ragProvider := initRAG(cfg, gemClient, log)
	crmScheduler, closeCRM := initCRMScheduler(cfg, log)
	if closeCRM != nil {
		defer closeCRM()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	keyVerifier := apikey.NewVerifier(pool, log)

	conversationModule := conversation.NewModule(conversation.Deps{
		Pool:             pool,
		Sessions:         sessions,
		Classifier:       gemini.NewClassifier(gemClient, log),
		Extractor:        gemini.NewExtractor(gemClient),
		Renderer:         gemini.NewRenderer(gemClient),
		RAG:              ragProvider,
		CRM:              crmScheduler,
		Bus:              eventBus,
		Validator:        val,
		Logger:           log,
		MeetingURL:       cfg.MeetingLinkURL,
		QualifyThreshold: cfg.QualifyThreshold,
		OperatorAuth:     keyVerifier.Middleware(),
	})

	whatsappClient := whatsapp.NewClient(cfg, log)
	webhookModule := webhook.NewModule(webhook.Deps{
		Engine:    conversationModule.Engine(),
		Finder:    conversationModule.Repository(),
		Sender:    whatsappClient,
		Auth:      keyVerifier.Middleware(),
		Validator: val,
		Logger:    log,
	})

	if cfg.EmailEnabled {
		mailer := notification.NewSMTPMailer(cfg)
		notificationModule := notification.NewModule(mailer, conversationModule.Repository(), cfg.SalesInbox, log)
		notificationModule.RegisterHandlers(eventBus)
		log.Info("sales notifications enabled", "inbox", cfg.SalesInbox)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			conversationModule,
			webhookModule,
		},
	}

	ginEngine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- ginEngine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRAG wires the retrieval collaborator when a Qdrant endpoint is
// configured; a nil provider means the engine skips retrieval.
func initRAG(cfg *config.Config, client *gemini.Client, log *logger.Logger) engine.ContextProvider {
	if !cfg.IsRAGEnabled() {
		log.Info("rag disabled")
		return nil
	}

	searcher := qdrant.NewClient(qdrant.Config{
		BaseURL:    cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
	})
	embedder := gemini.NewEmbedder(client, cfg.EmbeddingModel)
	log.Info("rag enabled", "collection", cfg.QdrantCollection)
	return rag.New(embedder, searcher, log)
}

// initCRMScheduler wires the asynq enqueue client when CRM sync is
// enabled. A nil scheduler means qualified leads are never pushed.
func initCRMScheduler(cfg *config.Config, log *logger.Logger) (engine.CRMScheduler, func()) {
	if !cfg.CRMEnabled {
		log.Info("crm sync disabled")
		return nil, nil
	}

	client, err := crmsync.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize crm sync client", "error", err)
		return nil, nil
	}

	log.Info("crm sync enabled", "queue", cfg.AsynqQueue)
	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
