package auth

import (
	"errors"

	"github.com/dmitrijs2005/gophblog/internal/common"
)

// DenyReason says why the guard refused a request.
type DenyReason string

const (
	DenyMissing DenyReason = "missing"
	DenyInvalid DenyReason = "invalid"
	DenyExpired DenyReason = "expired"
)

// Decision is the outcome of a guard check: either Allowed with a confirmed
// principal id, or denied with a Reason. Writing the response is up to the
// caller.
type Decision struct {
	Allowed bool
	UserID  string
	Reason  DenyReason
}

func Allow(userID string) Decision { return Decision{Allowed: true, UserID: userID} }

func Deny(reason DenyReason) Decision { return Decision{Reason: reason} }

// Guard re-verifies a token for routes that require an authenticated admin.
type Guard struct {
	tokens *TokenService
}

func NewGuard(tokens *TokenService) *Guard {
	return &Guard{tokens: tokens}
}

// Check verifies token independently of any identity attached earlier in
// the request pipeline.
func (g *Guard) Check(token string) Decision {
	if token == "" {
		return Deny(DenyMissing)
	}

	claims, err := g.tokens.Verify(token)
	switch {
	case err == nil:
		return Allow(claims.UserID)
	case errors.Is(err, common.ErrTokenExpired):
		return Deny(DenyExpired)
	default:
		return Deny(DenyInvalid)
	}
}
