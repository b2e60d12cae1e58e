package tipranks

import (
	"context"
	"fmt"
	"time"
)

const (
	report_cached_authenticator_get = "cached-authenticator.get"
	report_cached_authenticator_put = "cached-authenticator.put"
)

// DirectLogin posts the credentials to the login endpoint of the mobile api,
// the session lives in the client's cookie jar afterwards.
type DirectLogin struct {
	Email    string
	Password string
}

func (l DirectLogin) Authenticate(ctx context.Context, c *Client) (Session, error) {
	return c.loginDirect(ctx, l.Email, l.Password)
}

// CookieLogin reuses a cookie string acquired elsewhere (usually a browser login).
type CookieLogin struct {
	Cookie string
}

func (l CookieLogin) Authenticate(_ context.Context, c *Client) (Session, error) {
	session := Session{Cookie: l.Cookie}
	if session.IsZero() {
		return Session{}, &LoginError{Reason: "empty session cookie"}
	}
	c.UseSession(session)
	return session, nil
}

// SessionStore persists sessions between processes.
type SessionStore interface {
	// Get returns false if no unexpired session exists for the key.
	Get(ctx context.Context, key string) (Session, bool, error)
	Put(ctx context.Context, key string, session Session, ttl time.Duration) error
}

// CachedAuthenticator serves a stored session when one exists, otherwise it
// authenticates through Inner and stores the result under Key.
//
// Store failures are reported but never fail the login.
type CachedAuthenticator struct {
	Store SessionStore
	Key   string
	TTL   time.Duration
	Inner Authenticator
}

func (a CachedAuthenticator) Authenticate(ctx context.Context, c *Client) (Session, error) {
	cached, found, err := a.Store.Get(ctx, a.Key)
	if err != nil {
		c.tel.ReportWarning(report_cached_authenticator_get, err, a.Key)
	}
	if found && !cached.IsZero() {
		c.tel.ReportDebug("using cached session", a.Key)
		c.UseSession(cached)
		return cached, nil
	}

	if a.Inner == nil {
		return Session{}, &LoginError{Reason: fmt.Sprintf("no cached session for %s", a.Key)}
	}
	session, err := a.Inner.Authenticate(ctx, c)
	if err != nil {
		return Session{}, err
	}

	if !session.IsZero() {
		err = a.Store.Put(ctx, a.Key, session, a.TTL)
		if err != nil {
			c.tel.ReportWarning(report_cached_authenticator_put, err, a.Key)
		}
	}
	return session, nil
}
