// Package web serves the public blog and the admin console over HTTP.
package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophblog/internal/filex"
	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/dmitrijs2005/gophblog/internal/server/auth"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	"github.com/dmitrijs2005/gophblog/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// UserService is the credential store as the handlers use it.
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, *models.User, error)
}

// PostService is the content repository as the handlers use it.
type PostService interface {
	Create(ctx context.Context, userID string, in services.PostInput) (*models.Post, error)
	ListByOwner(ctx context.Context, userID string) ([]*models.Post, error)
	FindOwned(ctx context.Context, userID, id string) (*models.Post, error)
	UpdateOwned(ctx context.Context, userID, id string, in services.PostInput) (*models.Post, error)
	DeleteOwned(ctx context.Context, userID, id string) error
	PublicPage(ctx context.Context, n int) (*models.Page, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	Search(ctx context.Context, raw string) ([]*models.Post, string, error)
}

// FlashStore keeps one-shot messages per session.
type FlashStore interface {
	NewSessionID() (string, error)
	Push(ctx context.Context, sessionID, message string) error
	Pop(ctx context.Context, sessionID string) ([]string, error)
	Forget(ctx context.Context, sessionID string) error
}

// RouterOptions carries the collaborators of the HTTP surface.
// UploadDir may be empty when images live in object storage.
type RouterOptions struct {
	Users        UserService
	Posts        PostService
	Flashes      FlashStore
	Sessions     *Sessions
	Tokens       *auth.TokenService
	Renderer     Renderer
	Logger       logging.Logger
	CookieSecure bool
	UploadDir    string
	UploadPrefix string
	HealthCheck  func(context.Context) error
}

type handlers struct {
	users        UserService
	posts        PostService
	flashes      FlashStore
	sessions     *Sessions
	tokens       *auth.TokenService
	renderer     Renderer
	logger       logging.Logger
	cookieSecure bool
	healthCheck  func(context.Context) error
}

// NewRouter assembles the chi router: request ids, access log, panic
// recovery and identity attachment on every route; the guard on admin
// routes that need an authenticated principal.
func NewRouter(opts RouterOptions) chi.Router {
	l := opts.Logger
	if l == nil {
		l = logging.Nop{}
	}
	h := &handlers{
		users:        opts.Users,
		posts:        opts.Posts,
		flashes:      opts.Flashes,
		sessions:     opts.Sessions,
		tokens:       opts.Tokens,
		renderer:     opts.Renderer,
		logger:       l.With("module", "http"),
		cookieSecure: opts.CookieSecure,
		healthCheck:  opts.HealthCheck,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(Attach(opts.Tokens))

	r.NotFound(h.notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	r.Get("/health", h.health)

	r.Get("/", h.index)
	r.Get("/post/{id}", h.showPost)
	r.Post("/search", h.search)
	r.Get("/about", h.about)

	if opts.UploadDir != "" {
		prefix := opts.UploadPrefix
		if prefix == "" {
			prefix = "/uploads/"
		}
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		r.Handle(prefix+"*", http.StripPrefix(prefix, uploadsOnly(http.FileServer(http.Dir(opts.UploadDir)))))
	}

	r.Route("/admin", func(r chi.Router) {
		r.Get("/", h.loginForm)
		r.Post("/", h.login)
		r.Get("/logout", h.logout)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(auth.NewGuard(opts.Tokens), h.logger, opts.CookieSecure))

			r.Get("/register", h.registerForm)
			r.Post("/register", h.register)
			r.Get("/dashboard", h.dashboard)
			r.Get("/add-post", h.addPostForm)
			r.Post("/add-post", h.addPost)
			r.Get("/edit/{id}", h.editPostForm)
			r.Post("/edit/{id}", h.editPost)
			r.Post("/delete/{id}", h.deletePost)
		})
	})

	return r
}

// uploadsOnly serves stored images and nothing else: no directory listings
// and no file whose extension is not one the blob store writes.
func uploadsOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") || !filex.IsImageName(r.URL.Path) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.healthCheck != nil {
		if err := h.healthCheck(r.Context()); err != nil {
			h.logger.Error(r.Context(), "health check failed", "error", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
