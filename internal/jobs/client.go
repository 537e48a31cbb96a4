package jobs

import (
	"context"
	"crypto/tls"
	"fmt"

	"timebank_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Client enqueues background tasks. A nil Client drops tasks silently so
// deployments without a worker keep working.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient creates a task client from the jobs configuration.
func NewClient(cfg config.JobsConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueTransferReceipt queues receipt mail for a committed transfer.
// Implements the wallet service's ReceiptEnqueuer.
func (c *Client) EnqueueTransferReceipt(ctx context.Context, tenantID, entryID, senderID, receiverID uuid.UUID, amount decimal.Decimal) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewTransferReceiptTask(TransferReceiptPayload{
		TenantID:   tenantID.String(),
		EntryID:    entryID.String(),
		SenderID:   senderID.String(),
		ReceiverID: receiverID.String(),
		Amount:     amount.String(),
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

// EnqueueWelcomeEmail queues the welcome mail for a new member.
func (c *Client) EnqueueWelcomeEmail(ctx context.Context, tenantID, accountID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewWelcomeEmailTask(WelcomeEmailPayload{
		TenantID:  tenantID.String(),
		AccountID: accountID.String(),
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
