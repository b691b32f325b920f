package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlash_PushPopOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeRepoMgr()
	s := NewFlashService(db, rm, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Push(ctx, "sid", "Invalid username or password"))

	got, err := s.Pop(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, []string{"Invalid username or password"}, got)

	got, err = s.Pop(ctx, "sid")
	require.NoError(t, err)
	assert.Empty(t, got, "a flash is shown exactly once")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFlash_PushRollsBackOnBeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("no conn"))

	s := NewFlashService(db, newFakeRepoMgr(), time.Hour)
	err = s.Push(context.Background(), "sid", "m")
	require.Error(t, err)
}

func TestFlash_EmptySession(t *testing.T) {
	s := NewFlashService(nil, newFakeRepoMgr(), time.Hour)

	got, err := s.Pop(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, s.Forget(context.Background(), ""))
}

func TestFlash_NewSessionID(t *testing.T) {
	s := NewFlashService(nil, newFakeRepoMgr(), time.Hour)
	a, err := s.NewSessionID()
	require.NoError(t, err)
	b, err := s.NewSessionID()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestFlash_SweepAndForget(t *testing.T) {
	rm := newFakeRepoMgr()
	s := NewFlashService(nil, rm, time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, rm.sessions.Touch(ctx, "old", now.Add(-time.Minute)))
	require.NoError(t, rm.sessions.Touch(ctx, "live", now.Add(time.Minute)))
	require.NoError(t, rm.sessions.AddFlash(ctx, "old", "stale"))

	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.Pop(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Forget(ctx, "live"))
	n, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestFlash_RunSweeperStopsOnCancel(t *testing.T) {
	rm := newFakeRepoMgr()
	s := NewFlashService(nil, rm, time.Hour)
	require.NoError(t, rm.sessions.Touch(context.Background(), "old", time.Now().Add(-time.Hour)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunSweeper(ctx, 5*time.Millisecond, logging.Nop{})
		close(done)
	}()

	require.Eventually(t, func() bool {
		rm.sessions.mu.Lock()
		defer rm.sessions.mu.Unlock()
		return len(rm.sessions.expires) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
