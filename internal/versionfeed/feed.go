package versionfeed

import (
	"context"
	"encoding/json"
	"time"

	"go-taskhub/internal/config"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Channel is the redis pub/sub channel carrying version bumps across instances.
const Channel = "authz.versions"

// Publisher is the narrow interface entity services depend on.
type Publisher interface {
	VersionBumped(ctx context.Context, ev Event)
}

// Feed publishes version bumps to the local hub and, when redis is
// configured, to every other instance via pub/sub. Delivery is best-effort:
// the engine's correctness never depends on the feed, only the latency of
// client-side cache refresh does.
type Feed struct {
	hub      *Hub
	rdb      *redis.Client
	log      *zap.Logger
	instance string
}

func NewFeed(lc fx.Lifecycle, cfg *config.Config, hub *Hub, log *zap.Logger) (*Feed, error) {
	f := &Feed{
		hub:      hub,
		log:      log,
		instance: primitive.NewObjectID().Hex(),
	}

	if cfg.RedisAddr == "" {
		log.Info("version feed running local-only (no REDIS_ADDR)")
		return f, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}
	f.rdb = client

	runCtx, stop := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go f.run(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stop()
			return client.Close()
		},
	})

	return f, nil
}

// VersionBumped fans the event out locally and over redis.
func (f *Feed) VersionBumped(ctx context.Context, ev Event) {
	f.hub.Broadcast(ev)

	if f.rdb == nil {
		return
	}

	ev.Origin = f.instance
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := f.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		f.log.Warn("version feed publish failed", zap.Error(err))
	}
}

// run forwards remote bumps into the local hub, dropping our own echoes.
func (f *Feed) run(ctx context.Context) {
	sub := f.rdb.Subscribe(ctx, Channel)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				f.log.Warn("version feed: bad payload", zap.Error(err))
				continue
			}
			if ev.Origin == f.instance {
				continue
			}
			f.hub.Broadcast(ev)
		}
	}
}
