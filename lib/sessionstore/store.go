// Package sessionstore persists TipRanks sessions so a process does not have to sign in again
// while a previous session is still valid.
package sessionstore

import (
	"context"
	"fmt"
	"time"
	"tipranks-client/internal/components/chrono"
	"tipranks-client/lib/platforms/tipranks"

	"github.com/golang-jwt/jwt/v5"
)

// Store implements tipranks.SessionStore, a ttl <= 0 given to Put means the
// session is kept until it is deleted (or the token cookie expires).
type Store interface {
	tipranks.SessionStore
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	// Kind is one of "memory", "sqlite" or "redis".
	Kind string `json:"kind"`
	// Path is the sqlite database file.
	Path string `json:"path"`
	// RedisUrl is parsed with redis.ParseURL, ex. redis://localhost:6379/0
	RedisUrl string `json:"redis_url"`
	// Size bounds the number of sessions kept in memory.
	Size int `json:"size"`
}

// Open creates the store described by the config.
func Open(ctx context.Context, cfg Config, clock chrono.API) (Store, error) {
	if clock == nil {
		clock = chrono.NewStandardImpl()
	}
	switch cfg.Kind {
	case "memory", "":
		return NewMemory(cfg.Size, clock), nil
	case "sqlite":
		store, err := OpenSQLite(ctx, cfg.Path, clock)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "redis":
		store, err := OpenRedis(ctx, cfg.RedisUrl, clock)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store kind %q", cfg.Kind)
	}
}

// TokenExpiry reads the expiry of the token cookie, the token is a JWT issued by
// the service, its signature is not verified since it is only used as a hint.
func TokenExpiry(session tipranks.Session) (time.Time, bool) {
	token, ok := session.Value(tipranks.TokenCookie)
	if !ok {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// BoundTTL shortens ttl to the remaining lifetime of the token cookie.
// It returns false if the token has already expired and the session should not be stored.
func BoundTTL(now time.Time, session tipranks.Session, ttl time.Duration) (time.Duration, bool) {
	expiry, ok := TokenExpiry(session)
	if !ok {
		return ttl, true
	}
	remaining := expiry.Sub(now)
	if remaining <= 0 {
		return 0, false
	}
	if ttl <= 0 || remaining < ttl {
		return remaining, true
	}
	return ttl, true
}

// expiresAt turns a ttl into an absolute time, zero means never.
func expiresAt(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
