package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tordrt/ddldump/internal/errs"
	"github.com/tordrt/ddldump/internal/logger"
	"github.com/tordrt/ddldump/internal/schema"
)

// Descriptor produces the catalog query for each kind of object it can dump.
// Every query yields one text column holding one DDL statement per row.
type Descriptor interface {
	Dialect() string
	Namespace() string
	Kinds() []schema.Kind
	Query(kind schema.Kind) (string, bool)
}

// quoteLiteral renders s as an SQL string literal, doubling embedded quotes
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteIdent renders s as a double-quoted SQL identifier
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// fetchStatements executes query and maps the single text column of every
// row into the returned slice, which is empty (not nil) when nothing matched
func fetchStatements(ctx context.Context, q Querier, kind schema.Kind, query string) ([]string, error) {
	op := fmt.Sprintf("fetch %s", kind)
	log := logger.FromContext(ctx)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, relabel(op, err)
	}
	defer rows.Close()

	stmts := make([]string, 0)
	checked := false
	for rows.Next() {
		if !checked {
			cols, err := rows.Columns()
			if err != nil {
				return nil, errs.Wrap(errs.ErrKindQueryFailed, op+": failed to read columns", err)
			}
			if len(cols) != 1 {
				return nil, errs.New(errs.ErrKindQueryFailed,
					fmt.Sprintf("%s: expected 1 result column, got %d", op, len(cols)))
			}
			checked = true
		}

		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, op+": failed to scan statement", err)
		}
		stmts = append(stmts, stmt)
	}
	if err := rows.Err(); err != nil {
		return nil, relabel(op, err)
	}

	log.Debugf("%s: %d statement(s)", op, len(stmts))
	return stmts, nil
}

// relabel prefixes a client error with the fetch operation, keeping its kind
func relabel(op string, err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return &errs.Error{Kind: e.Kind, Message: op + ": " + e.Message, Cause: e.Cause}
	}
	return errs.Wrap(errs.ErrKindQueryFailed, op, err)
}

// fetchKind runs the descriptor's query for kind
func fetchKind(ctx context.Context, q Querier, d Descriptor, kind schema.Kind) ([]string, error) {
	query, ok := d.Query(kind)
	if !ok {
		return nil, errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("%s does not support %s", d.Dialect(), kind))
	}
	return fetchStatements(ctx, q, kind, query)
}
