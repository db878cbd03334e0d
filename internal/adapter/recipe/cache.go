package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
	"github.com/YelzhanWeb/orderboard/internal/metrics"
)

// Cache is the slice of the redis client the catalog uses.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedCatalog is a read-through Redis cache in front of another catalog.
// Cache failures are logged and never fail a lookup.
type CachedCatalog struct {
	next   interfaces.RecipeCatalog
	cache  Cache
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedCatalog(next interfaces.RecipeCatalog, cache Cache, ttl time.Duration, logger logger.Logger) *CachedCatalog {
	return &CachedCatalog{next: next, cache: cache, ttl: ttl, logger: logger}
}

type cachedBudgets struct {
	PrepSeconds float64 `json:"prep_seconds"`
	CookSeconds float64 `json:"cook_seconds"`
	CutSeconds  float64 `json:"cut_seconds"`
}

func cacheKey(recipeID string) string {
	return fmt.Sprintf("recipe:budgets:%s", recipeID)
}

func (c *CachedCatalog) Budgets(ctx context.Context, recipeID string) (metrics.StageBudgets, error) {
	key := cacheKey(recipeID)

	cached, err := c.cache.Get(ctx, key).Result()
	switch {
	case err == nil:
		var v cachedBudgets
		if err := json.Unmarshal([]byte(cached), &v); err == nil {
			return metrics.StageBudgets{
				Prep: time.Duration(v.PrepSeconds * float64(time.Second)),
				Cook: time.Duration(v.CookSeconds * float64(time.Second)),
				Cut:  time.Duration(v.CutSeconds * float64(time.Second)),
			}, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Error("recipe_cache_read_failed", "Recipe cache read failed", "", map[string]interface{}{"recipe_id": recipeID}, err)
	}

	budgets, err := c.next.Budgets(ctx, recipeID)
	if err != nil {
		return metrics.StageBudgets{}, err
	}

	data, _ := json.Marshal(cachedBudgets{
		PrepSeconds: budgets.Prep.Seconds(),
		CookSeconds: budgets.Cook.Seconds(),
		CutSeconds:  budgets.Cut.Seconds(),
	})
	if err := c.cache.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("recipe_cache_write_failed", "Recipe cache write failed", "", map[string]interface{}{"recipe_id": recipeID}, err)
	}
	return budgets, nil
}

// NewRedisClient opens the client used as the recipe cache.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
