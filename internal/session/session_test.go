package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewManager(client, "test_session", time.Hour, false)
}

func TestLoad_NewSessionWithoutCookie(t *testing.T) {
	m := newManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := m.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
}

func TestCommitAndReload(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := m.Load(ctx, req)
	require.NoError(t, err)
	sess.Set("answer", "42")

	res := httptest.NewRecorder()
	require.NoError(t, m.Commit(ctx, res, sess))

	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(&http.Cookie{Name: m.CookieName(), Value: sess.ID})

	reloaded, err := m.Load(ctx, req2)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, reloaded.ID)
	assert.Equal(t, "42", reloaded.Get("answer"))
}

func TestFlash_PopOnce(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := m.Load(ctx, req)
	require.NoError(t, err)

	sess.AddFlash(FlashSuccess, "User created successfully!")
	require.NoError(t, m.Commit(ctx, httptest.NewRecorder(), sess))

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(&http.Cookie{Name: m.CookieName(), Value: sess.ID})
	reloaded, err := m.Load(ctx, req2)
	require.NoError(t, err)

	flash := reloaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, FlashSuccess, flash.Kind)
	assert.Equal(t, "User created successfully!", flash.Message)

	assert.Nil(t, reloaded.PopFlash(), "flash is shown exactly once")
	require.NoError(t, m.Commit(ctx, httptest.NewRecorder(), reloaded))

	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.AddCookie(&http.Cookie{Name: m.CookieName(), Value: sess.ID})
	again, err := m.Load(ctx, req3)
	require.NoError(t, err)
	assert.Nil(t, again.PopFlash(), "pop survives a round trip")
}

func TestDestroy(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := m.Load(ctx, req)
	require.NoError(t, err)
	require.NoError(t, m.Commit(ctx, httptest.NewRecorder(), sess))

	m.Destroy(sess)
	res := httptest.NewRecorder()
	require.NoError(t, m.Commit(ctx, res, sess))

	var cleared bool
	for _, c := range res.Result().Cookies() {
		if c.Name == m.CookieName() && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "cookie cleared on destroy")
}

func TestCSRF_EnsureAndVerify(t *testing.T) {
	csrf := NewCSRFManager("secret")
	sess := newSession()

	token, err := csrf.EnsureToken(sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	again, err := csrf.EnsureToken(sess)
	require.NoError(t, err)
	assert.Equal(t, token, again, "token is stable per session")

	assert.NoError(t, csrf.VerifyToken(sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(sess, ""), ErrCSRFTokenMissing)
}
