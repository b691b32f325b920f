// Package auth issues and verifies the signed access tokens carried in the
// "token" cookie, and decides whether a request may enter an admin route.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed lifetime of an access token. There is no refresh.
const TokenTTL = time.Hour

// Claims holds the registered claims plus the id of the principal the token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// TokenService signs and verifies HS256 access tokens with a single
// server-held secret. It is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a TokenService using the wall clock.
func NewTokenService(secretKey string) *TokenService {
	return &TokenService{secret: []byte(secretKey), ttl: TokenTTL, now: time.Now}
}

// WithClock returns a copy of s reading time from now. Used in tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	c := *s
	c.now = now
	return &c
}

// Issue returns a signed token for userID valid for TokenTTL.
func (s *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature, algorithm and expiry of tokenString.
// It returns common.ErrTokenExpired for a well-signed token past its expiry
// and common.ErrInvalidToken for every other failure.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
