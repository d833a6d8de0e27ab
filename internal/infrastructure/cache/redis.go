// Package cache contiene los adaptadores Redis: caché versionada del árbol de categorías
// y candado distribuido para reubicaciones.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/goldshop-api/pkg/config"
	"github.com/redis/go-redis/v9"
)

// NewClient crea el cliente Redis y verifica la conexión con un ping acotado.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
