package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/dbx"
	"github.com/dmitrijs2005/gophblog/internal/filex"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	"github.com/dmitrijs2005/gophblog/internal/server/repositories/posts"
	"github.com/dmitrijs2005/gophblog/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/gophblog/internal/server/repositories/users"
	"github.com/google/uuid"
)

// ---- in-memory repositories ----

type memUsers struct {
	mu        sync.Mutex
	byName    map[string]*models.User
	createErr error
	getErr    error
	creates   int
}

func newMemUsers() *memUsers { return &memUsers{byName: map[string]*models.User{}} }

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.byName[u.UserName]; ok {
		return nil, common.ErrDuplicateUsername
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	cp := *u
	m.byName[u.UserName] = &cp
	return u, nil
}

func (m *memUsers) GetUserByLogin(_ context.Context, name string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.byName[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byName {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

type memPosts struct {
	mu    sync.Mutex
	items map[string]*models.Post
	clock time.Time
	err   error
}

func newMemPosts() *memPosts {
	return &memPosts{items: map[string]*models.Post{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memPosts) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memPosts) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p.ID = uuid.NewString()
	p.CreatedAt = m.tick()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.items[p.ID] = &cp
	return p, nil
}

func (m *memPosts) sorted(keep func(*models.Post) bool) []*models.Post {
	var out []*models.Post
	for _, p := range m.items {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memPosts) ListByOwner(_ context.Context, userID string) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(p *models.Post) bool { return p.UserID == userID }), nil
}

func (m *memPosts) FindOwned(_ context.Context, userID, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) UpdateOwned(_ context.Context, userID, id string, patch models.PostPatch) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.UserID != userID {
		return nil, common.ErrorNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Body != nil {
		p.Body = *patch.Body
	}
	if patch.ImagePath != nil {
		p.ImagePath = *patch.ImagePath
	}
	p.UpdatedAt = m.tick()
	cp := *p
	return &cp, nil
}

func (m *memPosts) DeleteOwned(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.UserID != userID {
		return common.ErrorNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memPosts) ListPublic(_ context.Context, limit, offset int) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(func(*models.Post) bool { return true })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memPosts) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

func (m *memPosts) GetByID(_ context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) Search(_ context.Context, term string) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := strings.ToLower(term)
	return m.sorted(func(p *models.Post) bool {
		return strings.Contains(strings.ToLower(p.Title), t) || strings.Contains(strings.ToLower(p.Body), t)
	}), nil
}

type memSessions struct {
	mu      sync.Mutex
	expires map[string]time.Time
	flashes map[string][]string
}

func newMemSessions() *memSessions {
	return &memSessions{expires: map[string]time.Time{}, flashes: map[string][]string{}}
}

func (m *memSessions) Touch(_ context.Context, id string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires[id] = exp
	return nil
}

func (m *memSessions) AddFlash(_ context.Context, sid, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flashes[sid] = append(m.flashes[sid], msg)
	return nil
}

func (m *memSessions) PopFlashes(_ context.Context, sid string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.flashes[sid]
	delete(m.flashes, sid)
	return out, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expires, id)
	delete(m.flashes, id)
	return nil
}

func (m *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, exp := range m.expires {
		if exp.Before(now) {
			delete(m.expires, id)
			delete(m.flashes, id)
			n++
		}
	}
	return n, nil
}

// ---- repository manager ----

type fakeRepoMgr struct {
	users    *memUsers
	posts    *memPosts
	sessions *memSessions
}

func newFakeRepoMgr() *fakeRepoMgr {
	return &fakeRepoMgr{users: newMemUsers(), posts: newMemPosts(), sessions: newMemSessions()}
}

func (f *fakeRepoMgr) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoMgr) Users(dbx.DBTX) users.Repository             { return f.users }
func (f *fakeRepoMgr) Posts(dbx.DBTX) posts.Repository             { return f.posts }
func (f *fakeRepoMgr) Sessions(dbx.DBTX) sessions.Repository       { return f.sessions }

// ---- blob storage ----

type fakeStorage struct {
	stored []string
	err    error
}

func (s *fakeStorage) Store(_ context.Context, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	path := fmt.Sprintf("/uploads/%d%s", len(s.stored)+1, filex.ImageExt(data))
	s.stored = append(s.stored, path)
	return path, nil
}
