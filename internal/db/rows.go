package db

import (
	"context"
	"database/sql"

	"github.com/tordrt/ddldump/internal/errs"
)

// Querier runs a catalog query. It is satisfied by every client in this
// package and is the only thing descriptors need to fetch DDL.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Rows is an abstraction over a driver result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
	Close()
}

// sqlQuerier adapts a database/sql pool, mapping driver errors with mapErr
type sqlQuerier struct {
	db     *sql.DB
	mapErr func(err error, msg string) *errs.Error
}

func (q *sqlQuerier) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, q.mapErr(err, "query failed")
	}
	return &sqlRows{rows: rows, mapErr: q.mapErr}, nil
}

// sqlRows wraps *sql.Rows to satisfy Rows
type sqlRows struct {
	rows   *sql.Rows
	mapErr func(err error, msg string) *errs.Error
}

func (r *sqlRows) Next() bool                 { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error     { return r.rows.Scan(dest...) }
func (r *sqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqlRows) Close()                     { _ = r.rows.Close() }

func (r *sqlRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return r.mapErr(err, "row iteration failed")
	}
	return nil
}
