package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/server/auth"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	"github.com/dmitrijs2005/gophblog/internal/server/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	aliceID = "11111111-1111-1111-1111-111111111111"
	bobID   = "22222222-2222-2222-2222-222222222222"
)

type fakeUsers struct {
	tokens    *auth.TokenService
	passwords map[string]string // username -> password
	ids       map[string]string // username -> id
	loginErr  error
}

func (f *fakeUsers) Register(_ context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, common.NewValidationError("username", "username is required")
	}
	if _, ok := f.ids[username]; ok {
		return nil, common.ErrDuplicateUsername
	}
	id := uuid.NewString()
	f.ids[username] = id
	f.passwords[username] = password
	return &models.User{ID: id, UserName: username}, nil
}

func (f *fakeUsers) Login(_ context.Context, username, password string) (string, *models.User, error) {
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	id, ok := f.ids[username]
	if !ok || f.passwords[username] != password {
		return "", nil, common.ErrInvalidCredentials
	}
	tok, err := f.tokens.Issue(id)
	if err != nil {
		return "", nil, err
	}
	return tok, &models.User{ID: id, UserName: username}, nil
}

type fakePosts struct {
	mu        sync.Mutex
	items     map[string]*models.Post
	clock     time.Time
	listCalls int
	perPage   int
}

func newFakePosts() *fakePosts {
	return &fakePosts{items: map[string]*models.Post{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), perPage: 6}
}

func (f *fakePosts) add(userID, title, body string) *models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Minute)
	p := &models.Post{ID: uuid.NewString(), UserID: userID, Title: title, Body: body, CreatedAt: f.clock, UpdatedAt: f.clock}
	f.items[p.ID] = p
	return p
}

func (f *fakePosts) sorted(keep func(*models.Post) bool) []*models.Post {
	var out []*models.Post
	for _, p := range f.items {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func validate(in services.PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return common.NewValidationError("title", "title is required")
	}
	if strings.TrimSpace(in.Body) == "" {
		return common.NewValidationError("body", "body is required")
	}
	return nil
}

func (f *fakePosts) Create(_ context.Context, userID string, in services.PostInput) (*models.Post, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	p := f.add(userID, strings.TrimSpace(in.Title), strings.TrimSpace(in.Body))
	if in.Image != nil {
		f.mu.Lock()
		p.ImagePath = "/uploads/" + in.Image.Name
		f.mu.Unlock()
	}
	return p, nil
}

func (f *fakePosts) ListByOwner(_ context.Context, userID string) ([]*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.sorted(func(p *models.Post) bool { return p.UserID == userID }), nil
}

func (f *fakePosts) FindOwned(_ context.Context, userID, id string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePosts) UpdateOwned(_ context.Context, userID, id string, in services.PostInput) (*models.Post, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.UserID != userID {
		return nil, common.ErrorNotFound
	}
	p.Title, p.Body = strings.TrimSpace(in.Title), strings.TrimSpace(in.Body)
	cp := *p
	return &cp, nil
}

func (f *fakePosts) DeleteOwned(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.UserID != userID {
		return common.ErrorNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakePosts) PublicPage(_ context.Context, n int) (*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted(func(*models.Post) bool { return true })
	start := (n - 1) * f.perPage
	page := &models.Page{Current: n}
	if start < len(all) {
		end := start + f.perPage
		if end > len(all) {
			end = len(all)
		}
		page.Posts = all[start:end]
	}
	if n*f.perPage < len(all) {
		page.NextPage = n + 1
	}
	return page, nil
}

func (f *fakePosts) Get(_ context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePosts) Search(_ context.Context, raw string) ([]*models.Post, string, error) {
	term := services.SanitizeSearchTerm(raw)
	f.mu.Lock()
	defer f.mu.Unlock()
	t := strings.ToLower(term)
	return f.sorted(func(p *models.Post) bool {
		return strings.Contains(strings.ToLower(p.Title), t) || strings.Contains(strings.ToLower(p.Body), t)
	}), term, nil
}

type fakeFlashes struct {
	mu   sync.Mutex
	n    int
	msgs map[string][]string
}

func (f *fakeFlashes) NewSessionID() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return "sid-" + strings.Repeat("x", f.n), nil
}

func (f *fakeFlashes) Push(_ context.Context, sid, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs[sid] = append(f.msgs[sid], msg)
	return nil
}

func (f *fakeFlashes) Pop(_ context.Context, sid string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.msgs[sid]
	delete(f.msgs, sid)
	return out, nil
}

func (f *fakeFlashes) Forget(_ context.Context, sid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.msgs, sid)
	return nil
}

// ---- test app ----

type testApp struct {
	router  http.Handler
	tokens  *auth.TokenService
	users   *fakeUsers
	posts   *fakePosts
	flashes *fakeFlashes
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	tokens := auth.NewTokenService("test-secret")
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	app := &testApp{
		tokens:  tokens,
		users:   &fakeUsers{tokens: tokens, passwords: map[string]string{"alice": "wonderland"}, ids: map[string]string{"alice": aliceID}},
		posts:   newFakePosts(),
		flashes: &fakeFlashes{msgs: map[string][]string{}},
	}
	app.router = NewRouter(RouterOptions{
		Users:    app.users,
		Posts:    app.posts,
		Flashes:  app.flashes,
		Sessions: NewSessions([]byte("0123456789abcdef0123456789abcdef"), time.Hour, false),
		Tokens:   tokens,
		Renderer: renderer,
	})
	return app
}

func (a *testApp) tokenFor(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	tok, err := a.tokens.Issue(userID)
	require.NoError(t, err)
	return &http.Cookie{Name: common.TokenCookieName, Value: tok}
}

func (a *testApp) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func (a *testApp) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req, cookies...)
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
