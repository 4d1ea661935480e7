// The crm-backfill binary pushes every qualified prospect that never
// reached the CRM. Useful after an outage or when sync was enabled
// late.
package main

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"prospectchat_backend/internal/config"
	"prospectchat_backend/internal/conversation/repository"
	"prospectchat_backend/internal/crm/brevo"
	"prospectchat_backend/internal/crmsync"
	"prospectchat_backend/internal/db"
	"prospectchat_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting crm backfill")

	if cfg.BrevoAPIKey == "" {
		panic("BREVO_API_KEY is required for backfill")
	}

	ctx := context.Background()
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

	repo := repository.New(pool)
	syncer := crmsync.NewSyncer(crmClient, cfg.BrevoListID)

	records, err := repo.ListUnsynced(ctx)
	if err != nil {
		log.Error("failed to list unsynced prospects", "error", err)
		panic("failed to list unsynced prospects: " + err.Error())
	}
	if len(records) == 0 {
		log.Info("no unsynced prospects, nothing to do")
		return
	}
	log.Info("found unsynced prospects", "count", len(records))

	var processed, succeeded atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			processed.Add(1)

			contactID, syncErr := syncer.Sync(gctx, rec)
			if contactID == "" {
				log.Error("backfill sync failed", "prospect_id", rec.ID, "error", syncErr)
				return nil
			}
			if syncErr != nil {
				log.Warn("partial sync", "prospect_id", rec.ID, "error", syncErr)
			}

			rec.CRMContactID = &contactID
			if err := repo.UpdateProspect(gctx, rec); err != nil {
				log.Error("failed to record contact id", "prospect_id", rec.ID, "error", err)
				return nil
			}

			succeeded.Add(1)
			log.Info("prospect backfilled", "prospect_id", rec.ID, "contact_id", contactID)
			return nil
		})
	}

	_ = g.Wait()
	log.Info("backfill complete", "processed", processed.Load(), "succeeded", succeeded.Load())
}
