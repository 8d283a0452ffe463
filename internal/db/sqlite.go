package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/tordrt/ddldump/internal/errs"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db *sql.DB
	Querier
}

// NewSQLiteClient opens the database file at path and pings it
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to open database", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, mapSQLiteError(err, "failed to ping database")
	}

	return &SQLiteClient{
		db:      db,
		Querier: &sqlQuerier{db: db, mapErr: mapSQLiteError},
	}, nil
}

// Ping verifies the database file is still readable
func (c *SQLiteClient) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return mapSQLiteError(err, "ping failed")
	}
	return nil
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}

// mapSQLiteError translates go-sqlite3 errors into *errs.Error
func mapSQLiteError(err error, msg string) *errs.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrCorrupt:
			return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
		case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		}
		return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("%s: %s", msg, sqliteErr.Error()), err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
