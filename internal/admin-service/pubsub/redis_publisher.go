package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/quiniela-platform/internal/shared/cache"
	"github.com/radieske/quiniela-platform/pkg/contracts/events"
)

// RedisBroadcaster avisa o results-service de resultados novos ou retirados
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

// Invalidate remove a lista de resultados em cache da data
func (b *RedisBroadcaster) Invalidate(ctx context.Context, drawDate string) error {
	return b.r.Del(ctx, cache.ResultsKey(drawDate)).Err()
}

func (b *RedisBroadcaster) PublishResult(ctx context.Context, e events.ResultPublished) error {
	if e.PublishedAt.IsZero() {
		e.PublishedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}
