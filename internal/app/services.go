package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/specialistvlad/contractvm/internal/config"
	"github.com/specialistvlad/contractvm/internal/ctxlog"
	"github.com/specialistvlad/contractvm/internal/host"
	"github.com/specialistvlad/contractvm/internal/host/memhost"
	"github.com/specialistvlad/contractvm/internal/host/redishost"
)

// newEnv builds the host services handed to contracts. The returned client
// is nil unless the redis backend is selected.
func newEnv(ctx context.Context, model *config.Model) (*host.Env, *redis.Client, error) {
	logger := ctxlog.FromContext(ctx)
	env := &host.Env{
		Chain:    memhost.NewChain(model.Chain.Height, model.Chain.From),
		Accounts: memhost.NewAccounts(model.Chain.Accounts),
	}

	switch model.State.Backend {
	case config.BackendRedis:
		client, err := redishost.Connect(ctx, model.State.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect state backend: %w", err)
		}
		env.State = redishost.NewStateDB(client, model.State.Namespace)
		env.Local = redishost.NewLocalDB(client, model.State.Namespace)
		logger.Debug("Using redis state backend.", "namespace", model.State.Namespace)
		return env, client, nil
	default:
		env.State = memhost.NewStateDB()
		env.Local = memhost.NewLocalDB()
		logger.Debug("Using in-memory state backend.")
		return env, nil, nil
	}
}
