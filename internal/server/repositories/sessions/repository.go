package sessions

import (
	"context"
	"time"
)

type Repository interface {
	Touch(ctx context.Context, id string, expiresAt time.Time) error
	AddFlash(ctx context.Context, sessionID, message string) error
	PopFlashes(ctx context.Context, sessionID string) ([]string, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
