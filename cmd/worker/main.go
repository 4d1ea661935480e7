// The worker binary consumes CRM sync tasks enqueued by the API and
// pushes qualified prospects into Brevo.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prospectchat_backend/internal/config"
	"prospectchat_backend/internal/conversation/repository"
	"prospectchat_backend/internal/crm/brevo"
	"prospectchat_backend/internal/crmsync"
	"prospectchat_backend/internal/db"
	"prospectchat_backend/internal/events"
	"prospectchat_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting crm sync worker", "env", cfg.Env, "queue", cfg.AsynqQueue)

	if !cfg.CRMEnabled {
		log.Error("crm sync is disabled, nothing to do")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	crmClient, err := brevo.NewClient(brevo.Config{
		APIKey:  cfg.BrevoAPIKey,
		BaseURL: cfg.BrevoBaseURL,
		Timeout: 15 * time.Second,
	})
	if err != nil {
		log.Error("failed to initialize brevo client", "error", err)
		panic("failed to initialize brevo client: " + err.Error())
	}

	worker, err := crmsync.NewWorker(
		cfg,
		repository.New(pool),
		crmsync.NewSyncer(crmClient, cfg.BrevoListID),
		events.NewInMemoryBus(log),
		log,
	)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("worker stopped")
}
