package db

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tordrt/ddldump/internal/errs"
	"github.com/tordrt/ddldump/internal/logger"
	"github.com/tordrt/ddldump/internal/schema"
)

const defaultConcurrency = 4

// Extractor dumps the DDL of one schema through one connection pool
type Extractor struct {
	querier     Querier
	desc        Descriptor
	concurrency int
}

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithConcurrency bounds how many kinds are fetched at once.
// Values below 1 are ignored.
func WithConcurrency(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewExtractor creates a new extractor
func NewExtractor(q Querier, d Descriptor, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		querier:     q,
		desc:        d,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Descriptor returns the descriptor the extractor runs
func (e *Extractor) Descriptor() Descriptor {
	return e.desc
}

// Fetch returns the statements of a single kind
func (e *Extractor) Fetch(ctx context.Context, kind schema.Kind) ([]string, error) {
	return fetchKind(ctx, e.querier, e.desc, kind)
}

// Extract fetches the requested kinds concurrently and assembles a dump in
// canonical kind order. If kinds is empty, all supported kinds are fetched.
// Requested kinds the dialect cannot produce are skipped and recorded.
// The first fetch error cancels the others and is returned as is.
func (e *Extractor) Extract(ctx context.Context, kinds []schema.Kind) (*schema.Dump, error) {
	log := logger.FromContext(ctx).With().
		Str("dialect", e.desc.Dialect()).
		Str("schema", e.desc.Namespace()).
		Logger()

	wanted, skipped := e.plan(kinds)
	for _, k := range skipped {
		log.Warnf("%s cannot dump %s, skipping", e.desc.Dialect(), k)
	}

	results := make([][]string, len(wanted))

	g, gctx := errgroup.WithContext(log.WithContext(ctx))
	g.SetLimit(e.concurrency)
	for i, kind := range wanted {
		g.Go(func() error {
			stmts, err := e.Fetch(gctx, kind)
			if err != nil {
				return err
			}
			results[i] = stmts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.ErrorWith("extraction failed", err, map[string]interface{}{
			"error_kind": errs.KindOf(err).String(),
		})
		return nil, err
	}

	dump := &schema.Dump{
		Dialect:  e.desc.Dialect(),
		Schema:   e.desc.Namespace(),
		Sections: make([]schema.Section, len(wanted)),
		Skipped:  skipped,
	}
	for i, kind := range wanted {
		dump.Sections[i] = schema.Section{Kind: kind, Statements: results[i]}
	}

	log.Infof("extracted %d statement(s) across %d kind(s)", dump.Count(), len(wanted))
	return dump, nil
}

// plan splits the requested kinds into supported ones, in canonical order,
// and unsupported ones
func (e *Extractor) plan(kinds []schema.Kind) (wanted, skipped []schema.Kind) {
	supported := make(map[schema.Kind]bool)
	for _, k := range e.desc.Kinds() {
		supported[k] = true
	}

	requested := make(map[schema.Kind]bool)
	if len(kinds) == 0 {
		requested = supported
	}
	for _, k := range kinds {
		requested[k] = true
	}

	for _, k := range schema.AllKinds {
		if !requested[k] {
			continue
		}
		if supported[k] {
			wanted = append(wanted, k)
		} else {
			skipped = append(skipped, k)
		}
	}
	return wanted, skipped
}
