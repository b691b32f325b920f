package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/filex"
	"github.com/dmitrijs2005/gophblog/internal/server/blobstore"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	"github.com/dmitrijs2005/gophblog/internal/server/repositories/repomanager"
)

const (
	MaxTitleLen   = 200
	MaxImageBytes = 5 << 20
)

var searchStrip = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// Upload is an image submitted with a post form. Name is the client's file
// name and plays no part in how the image is stored.
type Upload struct {
	Name string
	Data []byte
}

// PostInput is what the add/edit forms submit. Image is optional.
// The title is stored trimmed, the body as submitted.
type PostInput struct {
	Title string
	Body  string
	Image *Upload
}

// PostService implements the ownership-scoped content operations used by
// the admin console and the read-only queries behind the public pages.
// Every admin method takes the guard-confirmed user id as its first filter.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	storage     blobstore.Storage
	perPage     int
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, storage blobstore.Storage, perPage int) *PostService {
	if perPage < 1 {
		perPage = 6
	}
	return &PostService{db: db, repomanager: m, storage: storage, perPage: perPage}
}

func (in *PostInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)

	if in.Title == "" {
		return common.NewValidationError("title", "title is required")
	}
	if len([]rune(in.Title)) > MaxTitleLen {
		return common.NewValidationError("title", fmt.Sprintf("title must be at most %d characters", MaxTitleLen))
	}
	if strings.TrimSpace(in.Body) == "" {
		return common.NewValidationError("body", "body is required")
	}
	if in.Image != nil && len(in.Image.Data) == 0 {
		in.Image = nil
	}
	if in.Image != nil {
		if len(in.Image.Data) > MaxImageBytes {
			return common.NewValidationError("image", "image is too large")
		}
		if filex.ImageExt(in.Image.Data) == "" {
			return common.NewValidationError("image", "image must be a PNG, JPEG, GIF or WebP file")
		}
	}
	return nil
}

func (s *PostService) storeImage(ctx context.Context, img *Upload) (string, error) {
	if img == nil {
		return "", nil
	}
	path, err := s.storage.Store(ctx, img.Data)
	if err != nil {
		return "", fmt.Errorf("error storing image: %w", err)
	}
	return path, nil
}

// Create validates in, stores the image if any and inserts the post owned by userID.
func (s *PostService) Create(ctx context.Context, userID string, in PostInput) (*models.Post, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	path, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{UserID: userID, Title: in.Title, Body: in.Body, ImagePath: path}
	p, err := s.repomanager.Posts(s.db).Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	return p, nil
}

// ListByOwner returns userID's posts, newest first.
func (s *PostService) ListByOwner(ctx context.Context, userID string) ([]*models.Post, error) {
	return s.repomanager.Posts(s.db).ListByOwner(ctx, userID)
}

// FindOwned returns the post if userID owns it, else common.ErrorNotFound.
func (s *PostService) FindOwned(ctx context.Context, userID, id string) (*models.Post, error) {
	return s.repomanager.Posts(s.db).FindOwned(ctx, userID, id)
}

// UpdateOwned replaces title and body, and the image when a new one is
// uploaded. The previous image blob is left in place.
func (s *PostService) UpdateOwned(ctx context.Context, userID, id string, in PostInput) (*models.Post, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Posts(s.db)

	// Ownership is checked before any blob is written; the update below
	// re-checks it atomically.
	if _, err := repo.FindOwned(ctx, userID, id); err != nil {
		return nil, err
	}

	patch := models.PostPatch{Title: &in.Title, Body: &in.Body}
	if in.Image != nil {
		path, err := s.storeImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		patch.ImagePath = &path
	}

	return repo.UpdateOwned(ctx, userID, id, patch)
}

// DeleteOwned removes the post if userID owns it, else common.ErrorNotFound.
func (s *PostService) DeleteOwned(ctx context.Context, userID, id string) error {
	return s.repomanager.Posts(s.db).DeleteOwned(ctx, userID, id)
}

// PublicPage returns page n (1-based) of all posts, newest first.
// NextPage is set only when a further page has posts.
func (s *PostService) PublicPage(ctx context.Context, n int) (*models.Page, error) {
	if n < 1 {
		n = 1
	}
	// beyond this the offset would overflow; nothing can live there anyway
	if n > math.MaxInt32/s.perPage {
		return &models.Page{Current: n}, nil
	}

	repo := s.repomanager.Posts(s.db)

	items, err := repo.ListPublic(ctx, s.perPage, (n-1)*s.perPage)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting posts: %w", err)
	}

	page := &models.Page{Posts: items, Current: n}
	if n*s.perPage < total {
		page.NextPage = n + 1
	}
	return page, nil
}

// Get returns any post for the public view.
func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.repomanager.Posts(s.db).GetByID(ctx, id)
}

// SanitizeSearchTerm keeps ASCII letters, digits and spaces only.
func SanitizeSearchTerm(raw string) string {
	return strings.TrimSpace(searchStrip.ReplaceAllString(raw, ""))
}

// Search matches the sanitized term against title and body, newest first.
// An empty sanitized term matches every post.
func (s *PostService) Search(ctx context.Context, raw string) ([]*models.Post, string, error) {
	term := SanitizeSearchTerm(raw)

	items, err := s.repomanager.Posts(s.db).Search(ctx, term)
	if err != nil {
		return nil, term, fmt.Errorf("error searching posts: %w", err)
	}
	return items, term, nil
}

// IsValidation reports whether err is a user-facing validation failure and
// returns its message.
func IsValidation(err error) (string, bool) {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return ve.Message, true
	}
	return "", false
}
