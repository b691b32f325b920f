// Package services contains server-side business logic. This file implements
// UserService, the credential store: registration, login and password checks.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/cryptox"
	"github.com/dmitrijs2005/gophblog/internal/server/auth"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	"github.com/dmitrijs2005/gophblog/internal/server/repositories/repomanager"
)

// MaxUsernameLen bounds usernames accepted at registration.
const MaxUsernameLen = 64

// UserService provides authentication-related operations:
// - Register: create users with a bcrypt password hash
// - Login: verify credentials and mint an access token
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	bcryptCost  int
	dummyHash   string
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService, bcryptCost int) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		bcryptCost:  bcryptCost,
		dummyHash:   cryptox.DummyHash(bcryptCost),
	}
}

// Register creates a user. An existing username is reported as
// common.ErrDuplicateUsername before any hashing work is done; a username
// taken concurrently is caught by the store's unique constraint.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, common.NewValidationError("username", "username is required")
	}
	if len(username) > MaxUsernameLen {
		return nil, common.NewValidationError("username", fmt.Sprintf("username must be at most %d characters", MaxUsernameLen))
	}
	if password == "" {
		return nil, common.NewValidationError("password", "password is required")
	}
	if len(password) > cryptox.MaxPasswordBytes {
		return nil, common.NewValidationError("password", fmt.Sprintf("password must be at most %d bytes", cryptox.MaxPasswordBytes))
	}

	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetUserByLogin(ctx, username); err == nil {
		return nil, common.ErrDuplicateUsername
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	hash, err := cryptox.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u, err := repo.Create(ctx, &models.User{UserName: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// FindByUsername returns the user or common.ErrorNotFound.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetUserByLogin(ctx, strings.TrimSpace(username))
}

// GetByID returns the user or common.ErrorNotFound.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// VerifyPassword reports whether plaintext matches the user's stored hash.
func (s *UserService) VerifyPassword(user *models.User, plaintext string) bool {
	if user == nil {
		return false
	}
	return cryptox.CheckPassword(user.PasswordHash, plaintext)
}

// Login verifies the credentials and returns a fresh access token.
// An unknown user and a wrong password both yield
// common.ErrInvalidCredentials after comparable work.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.BurnPasswordCheck(s.dummyHash, password)
			return "", nil, common.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if !s.VerifyPassword(user, password) {
		return "", nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return token, user, nil
}
