package web

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/dmitrijs2005/gophblog/internal/server/auth"
	"github.com/go-chi/chi/v5/middleware"
)

// LoginPath is where the guard sends requests it denies.
const LoginPath = "/admin"

// AccessLog writes one structured line per request.
func AccessLog(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			l.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		})
	}
}

// Attach decodes the token cookie, if any, and records the principal for
// rendering. It never rejects a request and never reports why a token
// failed to verify.
func Attach(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := tokenFromRequest(r); tok != "" {
				if claims, err := tokens.Verify(tok); err == nil {
					r = r.WithContext(auth.WithAttachedUser(r.Context(), claims.UserID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin runs the guard on every request it wraps. A denied request
// is redirected to the login page and the wrapped handler does not run;
// an allowed one carries the confirmed principal in its context.
func RequireAdmin(g *auth.Guard, l logging.Logger, cookieSecure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Check(tokenFromRequest(r))
			if !d.Allowed {
				l.Debug(r.Context(), "admin access denied", "reason", string(d.Reason), "path", r.URL.Path)
				if d.Reason != auth.DenyMissing {
					clearTokenCookie(w, cookieSecure)
				}
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithConfirmedUser(r.Context(), d.UserID)))
		})
	}
}
