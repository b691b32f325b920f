// Package common defines shared constants and sentinel errors used across
// the blog server, its repositories and the admin CLI. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Credential errors. ErrInvalidCredentials never tells which of the
	// username or the password was wrong.
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Validation errors (empty required fields and the like).
	ErrValidation = errors.New("validation error")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
