package utils

import (
	"context"
	"time"
)

// Retry ejecuta fn hasta attempts veces, esperando delay entre intentos.
// Si shouldRetry no es nil y devuelve false, el error se devuelve de inmediato.
func Retry(ctx context.Context, attempts int, delay time.Duration, shouldRetry func(error) bool, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if shouldRetry != nil && !shouldRetry(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
