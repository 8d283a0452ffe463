package db

import (
	"context"
	"fmt"

	"github.com/tordrt/ddldump/internal/errs"
	"github.com/tordrt/ddldump/internal/schema"
)

// Client is a live connection pool that can run catalog queries
type Client interface {
	Querier
	Ping(ctx context.Context) error
}

// NewDescriptor returns the descriptor of dialect for namespace. An empty
// namespace means "public" for PostgreSQL and "main" for SQLite; MySQL has
// no default.
func NewDescriptor(dialect, namespace string) (Descriptor, error) {
	switch dialect {
	case DialectPostgres:
		if namespace == "" {
			namespace = "public"
		}
		return NewPgSchema(namespace), nil
	case DialectSQLite:
		return NewSQLiteSchema(namespace), nil
	case DialectMySQL:
		if namespace == "" {
			return nil, errs.New(errs.ErrKindInvalidInput, "mysql requires a database name")
		}
		return NewMySQLSchema(namespace), nil
	default:
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unsupported dialect: %s", dialect))
	}
}

// Catalog binds a client to its dialect, so one pool can serve extractions
// of any schema it can see
type Catalog struct {
	client  Client
	dialect string
	opts    []ExtractorOption
}

// NewCatalog creates a catalog; opts apply to every extractor it builds
func NewCatalog(client Client, dialect string, opts ...ExtractorOption) *Catalog {
	return &Catalog{client: client, dialect: dialect, opts: opts}
}

// Dialect returns the catalog's dialect
func (c *Catalog) Dialect() string {
	return c.dialect
}

// Ping checks the underlying pool
func (c *Catalog) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

// Extractor returns an extractor for namespace
func (c *Catalog) Extractor(namespace string) (*Extractor, error) {
	desc, err := NewDescriptor(c.dialect, namespace)
	if err != nil {
		return nil, err
	}
	return NewExtractor(c.client, desc, c.opts...), nil
}

// Extract dumps the requested kinds of namespace
func (c *Catalog) Extract(ctx context.Context, namespace string, kinds []schema.Kind) (*schema.Dump, error) {
	e, err := c.Extractor(namespace)
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, kinds)
}

// Fetch returns the statements of one kind of namespace
func (c *Catalog) Fetch(ctx context.Context, namespace string, kind schema.Kind) ([]string, error) {
	e, err := c.Extractor(namespace)
	if err != nil {
		return nil, err
	}
	return e.Fetch(ctx, kind)
}

// Supports reports whether the dialect can dump kind
func (c *Catalog) Supports(kind schema.Kind) bool {
	desc, err := NewDescriptor(c.dialect, "x")
	if err != nil {
		return false
	}
	_, ok := desc.Query(kind)
	return ok
}
