package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/stillpath/stillpath-backend/internal/platform/logger"
	"github.com/stillpath/stillpath-backend/internal/realtime"
)

// EventBus publishes progression events for the cache/notification layer.
type EventBus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	Close() error
}

type eventBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewEventBus(log *logger.Logger, addr, channel string) (EventBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if strings.TrimSpace(channel) == "" {
		channel = "progression"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &eventBus{
		log:     log.With("service", "RedisEventBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *eventBus) Publish(ctx context.Context, msg realtime.Message) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis event bus not initialized")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *eventBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
