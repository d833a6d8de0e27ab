package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/goldshop-api/internal/application/usecase"
	"github.com/jhoicas/goldshop-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

var _ usecase.ReparentGuard = (*ReparentLock)(nil)

// Solo borra la clave si el token sigue siendo el nuestro (el TTL pudo vencer y otro tomarla).
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReparentLock candado distribuido: como máximo una reubicación en curso por categoría
// entre todas las instancias de la API.
type ReparentLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReparentLock construye el candado. ttl acota cuánto dura si el proceso muere sin liberar.
func NewReparentLock(client *redis.Client, ttl time.Duration) *ReparentLock {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &ReparentLock{client: client, ttl: ttl}
}

func lockKey(companyID, categoryID string) string {
	return "categories:" + companyID + ":reparent:" + categoryID
}

// Acquire toma el candado o devuelve domain.ErrMoveInFlight.
func (l *ReparentLock) Acquire(ctx context.Context, companyID, categoryID string) (func(), error) {
	key := lockKey(companyID, categoryID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("reparent lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrMoveInFlight
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Contexto propio: la petición pudo cancelarse y aun así hay que liberar.
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(rctx, l.client, []string{key}, token).Err()
		})
	}, nil
}
