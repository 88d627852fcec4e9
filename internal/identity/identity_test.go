package identity

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unigenai/unigen/internal/store"
)

func newRepo(t *testing.T) *store.SQLiteStore {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "identity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// serve runs req through the middleware and returns the resolved user ID.
func serve(t *testing.T, repo store.Repository, req *http.Request) (string, bool, *httptest.ResponseRecorder) {
	t.Helper()
	var userID string
	var anonymous bool
	h := Middleware(repo, true)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		userID = UserIDFromContext(r.Context())
		anonymous = IsAnonymous(r.Context())
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return userID, anonymous, w
}

func TestQueryParamWinsOverHeader(t *testing.T) {
	repo := newRepo(t)
	req := httptest.NewRequest(http.MethodGet, "/api/session?user_id=alice", nil)
	req.Header.Set(UserIDHeaderName, "bob")

	userID, anonymous, _ := serve(t, repo, req)
	assert.Equal(t, "alice", userID)
	assert.False(t, anonymous)

	user, err := repo.GetUser(req.Context(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestHeaderIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeaderName, "bob")
	userID, _, _ := serve(t, newRepo(t), req)
	assert.Equal(t, "bob", userID)
}

func TestAnonymousCookie(t *testing.T) {
	repo := newRepo(t)

	userID, anonymous, w := serve(t, repo, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, anonymous)
	assert.True(t, isValidAnonID(userID), userID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, AnonCookieName, cookies[0].Name)
	assert.Equal(t, userID, cookies[0].Value)

	// The same cookie maps to the same user on the next request.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	again, _, _ := serve(t, repo, req)
	assert.Equal(t, userID, again)

	user, err := repo.GetUser(req.Context(), userID)
	require.NoError(t, err)
	assert.Equal(t, "anon-"+userID[len(userID)-8:], user.Username)
}

func TestInvalidIdentityFallsBackToCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeaderName, "not a valid id!")
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "forged"})

	userID, anonymous, _ := serve(t, newRepo(t), req)
	assert.True(t, anonymous)
	assert.NotEqual(t, "forged", userID)
	assert.True(t, isValidAnonID(userID))
}
