package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chatapp-client/internal/cache"
	"chatapp-client/internal/config"
	"chatapp-client/internal/models"
)

const sweepInterval = time.Minute

// Setup builds the state on the backend named by cfg. redisClient is only
// used by the redis backend and db only by the sql backend. Local sweepers
// stop when ctx is done.
func Setup(ctx context.Context, cfg config.Cache, redisClient *redis.Client, db *sql.DB, sugar *zap.SugaredLogger) (*State, error) {
	var backends Backends

	switch cfg.Backend {
	case "", "local":
		users := cache.NewLocal[models.User](cfg.TTL)
		channels := cache.NewLocal[models.Channel](cfg.TTL)
		guilds := cache.NewLocal[models.Guild](cfg.TTL)
		messages := cache.NewLocal[models.Message](cfg.TTL)

		go users.Sweep(ctx, sweepInterval)
		go channels.Sweep(ctx, sweepInterval)
		go guilds.Sweep(ctx, sweepInterval)
		go messages.Sweep(ctx, sweepInterval)

		backends = Backends{Users: users, Channels: channels, Guilds: guilds, Messages: messages}
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis cache backend needs a redis client")
		}
		backends = Backends{
			Users:    cache.NewRedis(redisClient, cfg.Prefix, models.KindUser, cfg.TTL, cache.JSONCodec[models.User]()),
			Channels: cache.NewRedis(redisClient, cfg.Prefix, models.KindChannel, cfg.TTL, cache.JSONCodec[models.Channel]()),
			Guilds:   cache.NewRedis(redisClient, cfg.Prefix, models.KindGuild, cfg.TTL, cache.JSONCodec[models.Guild]()),
			Messages: cache.NewRedis(redisClient, cfg.Prefix, models.KindMessage, cfg.TTL, cache.MessageCodec()),
		}
	case "sql":
		if db == nil {
			return nil, fmt.Errorf("sql cache backend needs a database")
		}
		backends = Backends{
			Users:    cache.NewSQL(db, models.KindUser, cfg.TTL, cache.JSONCodec[models.User]()),
			Channels: cache.NewSQL(db, models.KindChannel, cfg.TTL, cache.JSONCodec[models.Channel]()),
			Guilds:   cache.NewSQL(db, models.KindGuild, cfg.TTL, cache.JSONCodec[models.Guild]()),
			Messages: cache.NewSQL(db, models.KindMessage, cfg.TTL, cache.MessageCodec()),
		}
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	sugar.Infof("Using %s cache backend", cfg.Backend)
	return New(cfg, backends, sugar), nil
}

// SetupRedis connects to the redis server named by cfg.
func SetupRedis(ctx context.Context, cfg config.Cache) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}
