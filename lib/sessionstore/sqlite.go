package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"tipranks-client/internal/components/chrono"
	"tipranks-client/lib/platforms/tipranks"

	_ "modernc.org/sqlite"
)

const Schema = `
create table if not exists sessions (
	key text primary key,
	cookie text not null,
	-- unix seconds, 0 means the session does not expire
	expires_at integer not null default 0
);
`

// SQLite keeps sessions in a local database file so they survive between runs of the cli.
type SQLite struct {
	db   *sql.DB
	time chrono.API
}

// OpenSQLite opens (or creates) the database at path, ":memory:" is accepted.
func OpenSQLite(ctx context.Context, path string, clock chrono.API) (SQLite, error) {
	if path == "" {
		return SQLite{}, fmt.Errorf("sqlite session store: no path configured")
	}
	if clock == nil {
		clock = chrono.NewStandardImpl()
	}
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0700)
		if err != nil {
			return SQLite{}, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return SQLite{}, err
	}
	// a single connection keeps ":memory:" databases alive between queries
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, err = db.ExecContext(ctx, "PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return SQLite{}, fmt.Errorf("sqlite session store: enable wal: %w", err)
		}
	}

	_, err = db.ExecContext(ctx, Schema)
	if err != nil {
		db.Close()
		return SQLite{}, fmt.Errorf("sqlite session store: create schema: %w", err)
	}
	return SQLite{db: db, time: clock}, nil
}

func (s SQLite) Get(ctx context.Context, key string) (tipranks.Session, bool, error) {
	var cookie string
	var expires int64
	err := s.db.QueryRowContext(
		ctx,
		"select cookie, expires_at from sessions where key = ?",
		key,
	).Scan(&cookie, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return tipranks.Session{}, false, nil
	}
	if err != nil {
		return tipranks.Session{}, false, err
	}

	if expires != 0 && s.time.Now().Unix() >= expires {
		err = s.Delete(ctx, key)
		return tipranks.Session{}, false, err
	}
	return tipranks.Session{Cookie: cookie}, true, nil
}

func (s SQLite) Put(ctx context.Context, key string, session tipranks.Session, ttl time.Duration) error {
	now := s.time.Now()
	ttl, ok := BoundTTL(now, session, ttl)
	if !ok {
		return s.Delete(ctx, key)
	}

	var expires int64
	if at := expiresAt(now, ttl); !at.IsZero() {
		expires = at.Unix()
	}
	_, err := s.db.ExecContext(
		ctx,
		`insert into sessions (key, cookie, expires_at) values (?, ?, ?)
		on conflict (key) do update set cookie = excluded.cookie, expires_at = excluded.expires_at`,
		key, session.Cookie, expires,
	)
	return err
}

func (s SQLite) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "delete from sessions where key = ?", key)
	return err
}

func (s SQLite) Close() error {
	return s.db.Close()
}
