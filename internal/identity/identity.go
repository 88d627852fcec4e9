// Package identity resolves the caller's user id for every request.
package identity

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unigenai/unigen/internal/store"
)

const (
	AnonCookieName   = "unigen_anon_id"
	UserIDHeaderName = "X-User-ID"
	UserIDQueryParam = "user_id"
	anonCookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const (
	userIDKey contextKey = iota
	anonymousKey
)

var (
	anonIDPattern = regexp.MustCompile(`^anon_[a-f0-9]{32}$`)
	userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:@-]{1,128}$`)
)

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// IsAnonymous reports whether the user ID came from the anonymous cookie.
func IsAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey).(bool)
	return v
}

// WithUserID returns a context carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func generateAnonID() string {
	return "anon_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func isValidAnonID(id string) bool {
	return anonIDPattern.MatchString(id)
}

// explicitUserID returns the caller-supplied id, query parameter first.
func explicitUserID(r *http.Request) string {
	id := strings.TrimSpace(r.URL.Query().Get(UserIDQueryParam))
	if id == "" {
		id = strings.TrimSpace(r.Header.Get(UserIDHeaderName))
	}
	if !userIDPattern.MatchString(id) {
		return ""
	}
	return id
}

func deriveUsername(userID string) string {
	if strings.HasPrefix(userID, "anon_") && len(userID) > 13 {
		return "anon-" + userID[len(userID)-8:]
	}
	return userID
}

func getOrCreateAnonID(w http.ResponseWriter, r *http.Request, isDev bool) string {
	id := generateAnonID()
	if c, err := r.Cookie(AnonCookieName); err == nil && isValidAnonID(c.Value) {
		id = c.Value
	}

	// Refresh the expiry on every request.
	http.SetCookie(w, &http.Cookie{
		Name:     AnonCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(anonCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(anonCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
	return id
}

// Middleware resolves the user ID from the user_id query parameter, the
// X-User-ID header or the anonymous cookie, in that order, and makes sure
// the user row exists.
func Middleware(repo store.Repository, isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := explicitUserID(r)
			anonymous := userID == ""
			if anonymous {
				userID = getOrCreateAnonID(w, r, isDev)
			}

			if _, err := repo.EnsureUser(r.Context(), userID, deriveUsername(userID)); err != nil {
				http.Error(w, `{"error":"failed to initialize user"}`, http.StatusInternalServerError)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			ctx = context.WithValue(ctx, anonymousKey, anonymous)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
