package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/quiniela-platform/internal/results-service/dto"
	shared "github.com/radieske/quiniela-platform/internal/shared/cache"
)

type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

func (c *Cache) GetResults(ctx context.Context, drawDate string, dst *[]dto.Result) (bool, error) {
	return shared.GetJSON(ctx, c.R, shared.ResultsKey(drawDate), dst)
}

func (c *Cache) SetResults(ctx context.Context, drawDate string, v []dto.Result, ttl time.Duration) error {
	return shared.SetJSON(ctx, c.R, shared.ResultsKey(drawDate), v, ttl)
}

func (c *Cache) Invalidate(ctx context.Context, drawDate string) error {
	return c.R.Del(ctx, shared.ResultsKey(drawDate)).Err()
}
