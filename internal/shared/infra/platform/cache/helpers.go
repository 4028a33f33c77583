package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const opTimeout = 200 * time.Millisecond

// AsyncCacheSet actualiza la caché en segundo plano sin bloquear al llamante.
// Usa un contexto propio: la escritura debe sobrevivir a la cancelación de la petición.
func AsyncCacheSet(cache Cache, key string, value interface{}, ttl int, log *zap.Logger) {
	if cache == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		if err := cache.Set(ctx, key, value, ttl); err != nil {
			log.Warn("Cache update failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}()
}

// Invalidate borra la clave de forma síncrona y acotada en el tiempo.
// Un fallo solo se registra: la caché nunca rompe una escritura en el repositorio.
func Invalidate(cache Cache, key string, log *zap.Logger) {
	if cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := cache.Delete(ctx, key); err != nil {
		log.Warn("Cache deletion failed",
			zap.String("key", key),
			zap.Error(err))
	}
}
