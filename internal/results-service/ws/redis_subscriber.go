package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/quiniela-platform/pkg/contracts/events"
)

// StartRedisSubscriber escuta o canal de resultados e repassa cada publicação ao Hub.
// onResult roda antes do broadcast (ex.: invalidar o cache da data).
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger, onResult func(context.Context, events.ResultPublished)) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				e, err := decodeResult([]byte(msg.Payload))
				if err != nil {
					log.Warn("ws subscriber unmarshal", zap.Error(err))
					continue
				}
				if onResult != nil {
					onResult(ctx, e)
				}
				hub.Broadcast(toUpdate(e))
			}
		}
	}()
}

func decodeResult(b []byte) (events.ResultPublished, error) {
	var e events.ResultPublished
	err := json.Unmarshal(b, &e)
	return e, err
}

func toUpdate(e events.ResultPublished) ResultUpdate {
	typ := "result"
	if e.Retracted {
		typ = "retracted"
	}
	return ResultUpdate{Type: typ, DrawDate: e.DrawDate, Payload: e}
}
