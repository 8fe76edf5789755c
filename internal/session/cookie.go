package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	// CookieName is the name of the signed cookie carrying the session id.
	CookieName = "yeargrid_session"
	idValueKey = "sid"
)

// Cookies mints and reads the opaque session id kept in a signed cookie.
// The table-set state itself never leaves the server.
type Cookies struct {
	store *sessions.CookieStore
}

// NewCookies creates a cookie manager. secret signs the cookie and must be
// kept stable across restarts for sessions to survive them.
func NewCookies(secret []byte, secure bool, maxAge time.Duration) *Cookies {
	store := sessions.NewCookieStore(secret)
	store.MaxAge(int(maxAge.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return &Cookies{store: store}
}

// ID returns the session id bound to the request, minting and setting a new
// one when the cookie is absent, expired or fails verification. fresh reports
// whether a new id was issued. It must run before the response body is written.
func (c *Cookies) ID(w http.ResponseWriter, r *http.Request) (id string, fresh bool, err error) {
	// A decode error still yields a usable new session.
	sess, _ := c.store.Get(r, CookieName)
	if v, ok := sess.Values[idValueKey].(string); ok && v != "" {
		return v, false, nil
	}

	id = uuid.NewString()
	sess.Values[idValueKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", false, fmt.Errorf("save session cookie: %w", err)
	}
	return id, true, nil
}

type contextKey struct{}

// WithID returns a copy of ctx carrying the session id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFrom returns the session id stored by WithID.
func IDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}
