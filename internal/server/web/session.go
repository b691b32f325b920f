package web

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/gorilla/securecookie"
)

// Sessions signs the "sid" cookie that keys server-side flash state.
// A cookie with a bad signature reads as no session.
type Sessions struct {
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
}

func NewSessions(hashKey []byte, ttl time.Duration, secure bool) *Sessions {
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(int(ttl.Seconds()))
	return &Sessions{codec: codec, ttl: ttl, secure: secure}
}

// Read returns the session id carried by r, or "".
func (s *Sessions) Read(r *http.Request) string {
	c, err := r.Cookie(common.SessionCookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	var id string
	if err := s.codec.Decode(common.SessionCookieName, c.Value, &id); err != nil {
		return ""
	}
	return id
}

// Write sets the signed session cookie for id.
func (s *Sessions) Write(w http.ResponseWriter, id string) error {
	encoded, err := s.codec.Encode(common.SessionCookieName, id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie in the browser.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
