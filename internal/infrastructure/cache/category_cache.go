package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/goldshop-api/internal/application/dto"
	"github.com/jhoicas/goldshop-api/internal/application/usecase"
	"github.com/redis/go-redis/v9"
)

var _ usecase.CategorySnapshotCache = (*CategoryCache)(nil)

// CategoryCache guarda la foto de categorías + medidas por empresa.
// Cada empresa tiene una versión (token aleatorio); invalidar = cambiar el token.
// Las fotos de versiones viejas expiran solas por TTL. Como el token nunca se
// repite, perder la clave de versión no puede resucitar una foto vieja.
//
// Redis es una optimización: si falla, se lee directo del loader.
type CategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCategoryCache construye la caché. client nil = sin caché (siempre llama al loader).
func NewCategoryCache(client *redis.Client, ttl time.Duration) *CategoryCache {
	return &CategoryCache{client: client, ttl: ttl}
}

func versionKey(companyID string) string {
	return "categories:" + companyID + ":version"
}

func snapshotKey(companyID, version string) string {
	return "categories:" + companyID + ":snapshot:" + version
}

// Version devuelve la versión vigente de la empresa, inicializándola si falta.
func (c *CategoryCache) Version(ctx context.Context, companyID string) (string, error) {
	key := versionKey(companyID)
	ver, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return ver, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", err
	}
	// SET NX: si otra instancia la creó primero, se usa la suya.
	if err := c.client.SetNX(ctx, key, uuid.NewString(), 0).Err(); err != nil {
		return "", err
	}
	return c.client.Get(ctx, key).Result()
}

// Fetch lee la foto de la caché o la construye con loader y la guarda.
func (c *CategoryCache) Fetch(ctx context.Context, companyID string, loader func(context.Context) (*dto.CategorySnapshot, error)) (*dto.CategorySnapshot, error) {
	if loader == nil {
		return nil, errors.New("cache: loader requerido")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	ver, err := c.Version(ctx, companyID)
	if err != nil {
		return loader(ctx)
	}
	key := snapshotKey(companyID, ver)

	if payload, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var snap dto.CategorySnapshot
		if err := json.Unmarshal(payload, &snap); err == nil {
			return &snap, nil
		}
		// payload corrupto: se regenera
	}

	snap, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(snap); err == nil {
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return snap, nil
}

// Invalidate asigna una versión nueva a la empresa.
func (c *CategoryCache) Invalidate(ctx context.Context, companyID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, versionKey(companyID), uuid.NewString(), 0).Err()
}
