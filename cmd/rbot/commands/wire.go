package commands

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/keshon/rbot/internal/approval"
	"github.com/keshon/rbot/internal/config"
	"github.com/keshon/rbot/internal/deployment"
)

const (
	pendingPrefix    = "rbot:approval:"
	deploymentPrefix = "rbot:deployment:"
)

type approvalStores struct {
	pending     approval.Store[approval.Pending]
	deployments approval.Store[deployment.Approval]
	close       func() error
}

// openApprovalStores keeps pending entries in Redis when REDIS_URL is set so
// they survive restarts, and in memory otherwise.
func openApprovalStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (approvalStores, error) {
	if cfg.RedisURL == "" {
		logger.Info().Msg("approvals kept in memory")
		return approvalStores{
			pending:     approval.NewMemoryStore[approval.Pending](),
			deployments: approval.NewMemoryStore[deployment.Approval](),
			close:       func() error { return nil },
		}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return approvalStores{}, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return approvalStores{}, fmt.Errorf("connect to redis: %w", err)
	}

	logger.Info().Str("addr", opts.Addr).Msg("approvals kept in redis")
	return approvalStores{
		pending:     approval.NewRedisStore[approval.Pending](client, pendingPrefix),
		deployments: approval.NewRedisStore[deployment.Approval](client, deploymentPrefix),
		close:       client.Close,
	}, nil
}
