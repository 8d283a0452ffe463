package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// fakeRows serves canned rows to the fetch helper
type fakeRows struct {
	cols   []string
	values [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.values[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d destination arguments, got %d", len(row), len(dest))
	}
	for i, v := range row {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into *string", v)
		}
		p, ok := dest[i].(*string)
		if !ok {
			return errors.New("unsupported destination")
		}
		*p = s
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.cols, nil }
func (r *fakeRows) Err() error                 { return r.err }
func (r *fakeRows) Close()                     { r.closed = true }

// fakeQuerier answers queries by exact text and records what it was asked
type fakeQuerier struct {
	mu      sync.Mutex
	results map[string]*fakeRows
	errs    map[string]error
	queries []string
	block   map[string]chan struct{}
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		results: make(map[string]*fakeRows),
		errs:    make(map[string]error),
		block:   make(map[string]chan struct{}),
	}
}

// statements registers single-column rows for query
func (q *fakeQuerier) statements(query string, stmts ...string) {
	rows := &fakeRows{cols: []string{"sql"}}
	for _, s := range stmts {
		rows.values = append(rows.values, []any{s})
	}
	q.results[query] = rows
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, _ ...any) (Rows, error) {
	q.mu.Lock()
	q.queries = append(q.queries, sql)
	ch := q.block[sql]
	q.mu.Unlock()

	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err, ok := q.errs[sql]; ok {
		return nil, err
	}
	if rows, ok := q.results[sql]; ok {
		return rows, nil
	}
	return &fakeRows{cols: []string{"sql"}}, nil
}
