package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func ConnectRedis(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}

// GetJSON lê uma chave e desserializa em dst. Retorna false quando a chave não existe.
func GetJSON(ctx context.Context, r *redis.Client, key string, dst any) (bool, error) {
	b, err := r.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

// SetJSON grava v serializado com TTL.
func SetJSON(ctx context.Context, r *redis.Client, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.Set(ctx, key, b, ttl).Err()
}

// ResultsKey é a chave da lista de resultados publicados para uma data de sorteio.
func ResultsKey(drawDate string) string { return "results:date:" + drawDate }
