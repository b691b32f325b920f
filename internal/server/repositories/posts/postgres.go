// Package posts provides the PostgreSQL-backed, ownership-scoped post store.
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/dbx"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	"github.com/google/uuid"
)

const postColumns = `id, user_id, title, body, image_path, created_at, updated_at`

// PostgresRepository implements post storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.Post, error) {
	p := &models.Post{}
	if err := s.Scan(&p.ID, &p.UserID, &p.Title, &p.Body, &p.ImagePath, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

// Create inserts post owned by post.UserID and fills in the generated fields.
func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query :=
		`INSERT INTO posts (user_id, title, body, image_path)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, post.UserID, post.Title, post.Body, post.ImagePath).
		Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

// ListByOwner returns userID's posts, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, userID string) ([]*models.Post, error) {
	if !validIDs(userID) {
		return nil, nil
	}

	query := `SELECT ` + postColumns + ` FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		`
	return r.list(ctx, query, userID)
}

// FindOwned returns the post only if userID owns it. A foreign, missing or
// malformed id all yield common.ErrorNotFound.
func (r *PostgresRepository) FindOwned(ctx context.Context, userID, id string) (*models.Post, error) {
	if !validIDs(userID, id) {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + postColumns + ` FROM posts
		WHERE id = $1 AND user_id = $2
		`
	return r.one(ctx, query, id, userID)
}

// UpdateOwned applies patch in a single statement scoped to the owner and
// returns the updated row.
func (r *PostgresRepository) UpdateOwned(ctx context.Context, userID, id string, patch models.PostPatch) (*models.Post, error) {
	if !validIDs(userID, id) {
		return nil, common.ErrorNotFound
	}

	query := `UPDATE posts SET
			title = COALESCE($3, title),
			body = COALESCE($4, body),
			image_path = COALESCE($5, image_path),
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + postColumns + `
		`
	return r.one(ctx, query, id, userID, patch.Title, patch.Body, patch.ImagePath)
}

// DeleteOwned removes the post if userID owns it, else common.ErrorNotFound.
func (r *PostgresRepository) DeleteOwned(ctx context.Context, userID, id string) error {
	if !validIDs(userID, id) {
		return common.ErrorNotFound
	}

	query := `DELETE FROM posts
		WHERE id = $1 AND user_id = $2
		`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// ListPublic returns one page of all posts, newest first.
func (r *PostgresRepository) ListPublic(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
		`
	return r.list(ctx, query, limit, offset)
}

// Count returns the total number of posts.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// GetByID returns any post by id for the public view.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if !validIDs(id) {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + postColumns + ` FROM posts
		WHERE id = $1
		`
	return r.one(ctx, query, id)
}

// Search does a case-insensitive substring match on title or body.
// term must already be stripped of LIKE metacharacters.
func (r *PostgresRepository) Search(ctx context.Context, term string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE title ILIKE '%' || $1 || '%' OR body ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC, id DESC
		`
	return r.list(ctx, query, term)
}

func (r *PostgresRepository) one(ctx context.Context, query string, args ...any) (*models.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select posts: %w", err)
	}
	defer rows.Close()

	var result []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
