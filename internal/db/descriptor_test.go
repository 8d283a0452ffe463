package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/ddldump/internal/errs"
	"github.com/tordrt/ddldump/internal/schema"
)

func TestFetchStatements(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		rows     *fakeRows
		queryErr error
		want     []string
		wantKind errs.ErrKind
	}{
		{
			name: "rows in order",
			rows: &fakeRows{cols: []string{"sql"}, values: [][]any{{"CREATE VIEW a.x AS SELECT 1;"}, {"CREATE VIEW a.y AS SELECT 2;"}}},
			want: []string{"CREATE VIEW a.x AS SELECT 1;", "CREATE VIEW a.y AS SELECT 2;"},
		},
		{
			name: "no rows is an empty list",
			rows: &fakeRows{cols: []string{"sql"}},
			want: []string{},
		},
		{
			name:     "two columns is a row-shape failure",
			rows:     &fakeRows{cols: []string{"name", "sql"}, values: [][]any{{"x", "CREATE VIEW a.x AS SELECT 1;"}}},
			wantKind: errs.ErrKindQueryFailed,
		},
		{
			name:     "NULL statement fails to scan",
			rows:     &fakeRows{cols: []string{"sql"}, values: [][]any{{nil}}},
			wantKind: errs.ErrKindQueryFailed,
		},
		{
			name:     "iteration error keeps its kind",
			rows:     &fakeRows{cols: []string{"sql"}, err: errs.New(errs.ErrKindConnectionFailed, "row iteration failed")},
			wantKind: errs.ErrKindConnectionFailed,
		},
		{
			name:     "plain query error becomes query_failed",
			queryErr: errors.New("boom"),
			wantKind: errs.ErrKindQueryFailed,
		},
		{
			name:     "wrapped mapped error keeps its kind",
			queryErr: fmt.Errorf("pool: %w", errs.New(errs.ErrKindTimeout, "query failed")),
			wantKind: errs.ErrKindTimeout,
		},
		{
			name:     "mapped query error keeps its kind",
			queryErr: errs.New(errs.ErrKindTimeout, "query failed"),
			wantKind: errs.ErrKindTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newFakeQuerier()
			if tt.rows != nil {
				q.results["Q"] = tt.rows
			}
			if tt.queryErr != nil {
				q.errs["Q"] = tt.queryErr
			}

			got, err := fetchStatements(ctx, q, schema.KindViews, "Q")
			if tt.wantKind != errs.ErrKindUnknown {
				require.Error(t, err)
				assert.Nil(t, got)
				assert.Equal(t, tt.wantKind, errs.KindOf(err))
				assert.Contains(t, err.Error(), "fetch views")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, tt.rows.closed, "rows must be closed")
		})
	}
}

func TestQuoteHelpers(t *testing.T) {
	assert.Equal(t, "'gpt'", quoteLiteral("gpt"))
	assert.Equal(t, "'it''s'", quoteLiteral("it's"))
	assert.Equal(t, "''", quoteLiteral(""))
	assert.Equal(t, `"main"`, quoteIdent("main"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}
