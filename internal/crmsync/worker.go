package crmsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"prospectchat_backend/internal/config"
	"prospectchat_backend/internal/conversation/repository"
	"prospectchat_backend/internal/events"
	"prospectchat_backend/platform/logger"
)

// Worker consumes sync tasks and pushes prospects to the CRM.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *repository.Repository
	syncer *Syncer
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg *config.Config, repo *repository.Repository, syncer *Syncer, bus events.Bus, log *logger.Logger) (*Worker, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.AsynqQueue
	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   repo,
		syncer: syncer,
		bus:    bus,
		log:    log,
	}
	mux.HandleFunc(TaskSyncProspect, w.handleSyncProspect)

	return w, nil
}

func (w *Worker) handleSyncProspect(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSyncProspectPayload(task)
	if err != nil {
		return err
	}

	prospectID, err := uuid.Parse(payload.ProspectID)
	if err != nil {
		return err
	}

	rec, err := w.repo.GetProspect(ctx, prospectID)
	if errors.Is(err, repository.ErrNotFound) {
		// Deleted since enqueue; nothing to retry.
		w.log.Warn("crm sync skipped, prospect gone", "prospect_id", payload.ProspectID)
		return nil
	}
	if err != nil {
		return err
	}
	if rec.CRMContactID != nil {
		return nil
	}

	contactID, err := w.syncer.Sync(ctx, rec)
	if contactID == "" {
		return err
	}
	if err != nil {
		// The contact exists; log the partial failure but record the id
		// so we do not create duplicates on retry.
		w.log.CollaboratorError("crm", "sync_prospect", err)
	}

	rec.CRMContactID = &contactID
	if err := w.repo.UpdateProspect(ctx, rec); err != nil {
		return err
	}

	w.bus.Publish(ctx, events.CRMSynced{
		BaseEvent:  events.NewBaseEvent(),
		ProspectID: rec.ID,
		ContactID:  contactID,
	})
	w.log.Info("prospect synced to crm", "prospect_id", rec.ID, "contact_id", contactID)
	return nil
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("crm sync worker stopped", "error", err)
	}
}
