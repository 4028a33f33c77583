package cache

import (
	"context"
)

// Cache es una caché clave-valor genérica. Los valores viajan serializados en JSON.
type Cache interface {
	// Get rellena dest (puntero) si la clave existe.
	// Devuelve (true, nil) en un hit y (false, nil) en un miss.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set guarda val con un TTL en segundos; ttlSecs <= 0 usa el TTL por defecto.
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error

	Delete(ctx context.Context, key string) error
}
