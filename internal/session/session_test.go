package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yeargrid/internal/core"
	"yeargrid/internal/session"
	"yeargrid/internal/session/memory"
)

type countingStore struct {
	*memory.Store
	loads   int
	saveErr error
}

func (s *countingStore) Load(ctx context.Context, id string) (core.State, bool, error) {
	s.loads++
	return s.Store.Load(ctx, id)
}

func (s *countingStore) Save(ctx context.Context, id string, st core.State) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.Store.Save(ctx, id, st)
}

func TestCachedStoreReadThrough(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: memory.New()}
	require.NoError(t, backing.Store.Save(ctx, "a", core.InitialState()))

	s := session.NewCachedStore(backing, 10, time.Minute)

	for i := 0; i < 3; i++ {
		st, ok, err := s.Load(ctx, "a")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "1:1", st.Key())
	}
	assert.Equal(t, 1, backing.loads, "later loads are served from the cache")

	_, ok, err := s.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Cache().Len(), "misses are not cached")
}

func TestCachedStoreWriteThrough(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: memory.New()}
	s := session.NewCachedStore(backing, 10, time.Minute)

	st, _ := core.InitialState().AddTable()
	require.NoError(t, s.Save(ctx, "a", st))

	got, ok, _ := backing.Store.Load(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, st.Key(), got.Key())

	require.NoError(t, s.Delete(ctx, "a"))
	_, ok, _ = s.Load(ctx, "a")
	assert.False(t, ok)
}

func TestCachedStoreSaveFailureDropsEntry(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: memory.New()}
	s := session.NewCachedStore(backing, 10, time.Minute)

	require.NoError(t, s.Save(ctx, "a", core.InitialState()))

	backing.saveErr = errors.New("disk full")
	next, _ := core.InitialState().AddTable()
	require.Error(t, s.Save(ctx, "a", next))

	backing.saveErr = nil
	got, ok, err := s.Load(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1:1", got.Key(), "the stored state wins after a failed write")
}

func TestCookiesMintAndReuseID(t *testing.T) {
	c := session.NewCookies([]byte("test-secret-key-32-bytes-long!!!"), false, time.Hour)

	rec := httptest.NewRecorder()
	id, fresh, err := c.ID(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, fresh)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	again, fresh, err := c.ID(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, id, again)
}

func TestCookiesRejectForeignSignature(t *testing.T) {
	issuer := session.NewCookies([]byte("issuer-secret-key-32-bytes-long!"), false, time.Hour)
	rec := httptest.NewRecorder()
	id, _, err := issuer.ID(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	other := session.NewCookies([]byte("another-secret-key-32-bytes-long"), false, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])

	got, fresh, err := other.ID(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.NotEqual(t, id, got)
}

func TestContextID(t *testing.T) {
	_, ok := session.IDFrom(context.Background())
	assert.False(t, ok)

	id, ok := session.IDFrom(session.WithID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}

func TestPingWithoutPinger(t *testing.T) {
	assert.NoError(t, session.Ping(context.Background(), memory.New()))
}
