package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/dbx"
	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/dmitrijs2005/gophblog/internal/server/repositories/repomanager"
)

// FlashService keeps one-shot messages for a browser session across a redirect.
type FlashService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	ttl         time.Duration
	now         func() time.Time
}

func NewFlashService(db *sql.DB, m repomanager.RepositoryManager, ttl time.Duration) *FlashService {
	return &FlashService{db: db, repomanager: m, ttl: ttl, now: time.Now}
}

// NewSessionID returns a fresh random session id.
func (s *FlashService) NewSessionID() (string, error) {
	return common.MakeRandHexString(32)
}

// Push stores message for sessionID, creating or extending the session in
// the same transaction.
func (s *FlashService) Push(ctx context.Context, sessionID, message string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Sessions(tx)
		if err := repo.Touch(ctx, sessionID, s.now().Add(s.ttl)); err != nil {
			return fmt.Errorf("error touching session: %w", err)
		}
		if err := repo.AddFlash(ctx, sessionID, message); err != nil {
			return fmt.Errorf("error adding flash: %w", err)
		}
		return nil
	})
}

// Pop returns and consumes all messages queued for sessionID.
func (s *FlashService) Pop(ctx context.Context, sessionID string) ([]string, error) {
	if sessionID == "" {
		return nil, nil
	}
	return s.repomanager.Sessions(s.db).PopFlashes(ctx, sessionID)
}

// Forget removes sessionID and anything queued for it.
func (s *FlashService) Forget(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.repomanager.Sessions(s.db).Delete(ctx, sessionID)
}

// Sweep deletes expired sessions once.
func (s *FlashService) Sweep(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *FlashService) RunSweeper(ctx context.Context, interval time.Duration, l logging.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				l.Error(ctx, "session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}
