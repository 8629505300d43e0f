// sqlite holds Store implementations backed by an embedded SQLite database, for
// single node deployments that do not want to run Elasticsearch.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/lloydmeta/notesync/internal/config"
)

const busyTimeoutMillis = 10000

// Open opens (creating if needed) the database file at the configured path. The schema
// is not installed here; see Schema.
func Open(settings config.Sqlite) (*sql.DB, error) {
	if dir := filepath.Dir(settings.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, DbErr{Underlying: fmt.Errorf("failed to create database directory: %w", err)}
		}
	}
	conn, err := sql.Open("sqlite3", dsn(settings.Path))
	if err != nil {
		return nil, DbErr{Underlying: err}
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, DbErr{Underlying: err}
	}
	conn.SetMaxIdleConns(4)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return conn, nil
}

func dsn(path string) string {
	params := url.Values{}
	params.Set("_txlock", "immediate")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMillis))
	params.Add("_pragma", "journal_mode(wal)")
	params.Add("_pragma", "foreign_keys(1)")
	return fmt.Sprintf("file:%s?%s", path, params.Encode())
}

// Ping checks that the database is reachable
func Ping(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return DbErr{Underlying: err}
	}
	return nil
}

func withTx(ctx context.Context, db *sql.DB, f func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return DbErr{Underlying: err}
	}
	if err := f(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return DbErr{Underlying: err}
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// DbErr wraps errors coming out of the database driver
type DbErr struct {
	Underlying error
}

func (e DbErr) Error() string {
	return fmt.Sprintf("Error from SQLite: %v", e.Underlying)
}

func (e DbErr) Unwrap() error {
	return e.Underlying
}
