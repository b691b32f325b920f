package posts

import (
	"context"

	"github.com/dmitrijs2005/gophblog/internal/server/models"
)

// Repository stores posts. Every *Owned method filters by the owner id in
// the same statement that reads or writes the row.
type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	ListByOwner(ctx context.Context, userID string) ([]*models.Post, error)
	FindOwned(ctx context.Context, userID, id string) (*models.Post, error)
	UpdateOwned(ctx context.Context, userID, id string, patch models.PostPatch) (*models.Post, error)
	DeleteOwned(ctx context.Context, userID, id string) error

	ListPublic(ctx context.Context, limit, offset int) ([]*models.Post, error)
	Count(ctx context.Context) (int, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Search(ctx context.Context, term string) ([]*models.Post, error)
}
