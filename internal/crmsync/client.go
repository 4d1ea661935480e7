// Package crmsync pushes qualified prospects to the CRM through a
// Redis-backed task queue, so a slow or down CRM never blocks a chat
// turn.
package crmsync

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"prospectchat_backend/internal/config"
)

// Client enqueues sync tasks. It implements the engine's CRMScheduler.
type Client struct {
	client  *asynq.Client
	queue   string
	retries int
}

func NewClient(cfg *config.Config) (*Client, error) {
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

	return &Client{
		client:  asynq.NewClient(opt),
		queue:   queue,
		retries: cfg.CRMMaxRetries,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleSync enqueues one prospect for CRM push. Duplicate enqueues
// are fine, the worker skips already-synced records.
func (c *Client) ScheduleSync(ctx context.Context, prospectID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewSyncProspectTask(SyncProspectPayload{ProspectID: prospectID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(c.retries),
	)
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		tlsConfig = opt.TLSConfig.Clone()
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
