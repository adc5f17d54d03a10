// Package view implements TableView, the pure transformation from a record set
// and a set of view parameters to fixed-size pages. A TableView is computed
// once, eagerly, and never changes afterwards: new parameters mean a new
// TableView.
package view

import (
	"fmt"

	"github.com/asaidimu/go-tableview/core/query"
	"github.com/asaidimu/go-tableview/core/schema"
	"go.uber.org/zap"
)

// Option configures how a TableView is built.
type Option func(*options)

type options struct {
	matcher *query.Matcher
	logger  *zap.Logger
}

// WithMatcher evaluates filters with m, making its registered custom
// predicates available to the view's filters.
func WithMatcher(m *query.Matcher) Option {
	return func(o *options) {
		o.matcher = m
	}
}

// WithLogger sets the logger used while building the view.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// TableView is an immutable snapshot of (records, parameters) together with
// the derived, paged result.
type TableView struct {
	source  []schema.Record
	params  query.ViewParameters
	derived []schema.Record
	pages   [][]schema.Record
	matcher *query.Matcher
	logger  *zap.Logger
}

// New validates params and runs the full pipeline over records: filter,
// search, sort and paginate, in that order. The only error it returns is a
// joined set of query.ContractViolationError values for malformed parameters;
// empty input is not an error.
func New(records []schema.Record, params query.ViewParameters, opts ...Option) (*TableView, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.matcher == nil {
		o.matcher = query.NewMatcher(o.logger)
	}

	if err := o.matcher.Validate(params).Err(); err != nil {
		return nil, fmt.Errorf("invalid view parameters: %w", err)
	}

	source := schema.CloneAll(records)
	params = params.Clone()

	derived := o.matcher.Apply(source, params.Filters)
	derived = Search(derived, params.SearchTerm)
	derived = Sort(derived, params.SortField, params.SortOrder)
	pages := Paginate(derived, params.PageSize)

	o.logger.Debug("Built table view",
		zap.Int("records", len(source)),
		zap.Int("derived", len(derived)),
		zap.Int("pages", len(pages)),
		zap.Int("pageSize", params.PageSize),
		zap.String("sortField", params.SortField),
		zap.String("sortOrder", string(params.SortOrder)),
	)

	return &TableView{
		source:  source,
		params:  params,
		derived: derived,
		pages:   pages,
		matcher: o.matcher,
		logger:  o.logger,
	}, nil
}

// With builds a new TableView over the same records with different parameters.
// The receiver is left untouched.
func (v *TableView) With(params query.ViewParameters) (*TableView, error) {
	return New(v.source, params, WithMatcher(v.matcher), WithLogger(v.logger))
}

// AtPage returns a TableView that differs from the receiver only in its current
// page. The derived records and pages are shared, since the page index plays no
// part in computing them. A page past the end is allowed and reads as empty.
func (v *TableView) AtPage(n int) (*TableView, error) {
	if n < 1 {
		return nil, fmt.Errorf("invalid view parameters: %w", query.ContractViolationError{
			Field:   "currentPage",
			Message: fmt.Sprintf("must be a positive integer, got %d", n),
		})
	}
	next := *v
	next.params = v.params.Clone()
	next.params.CurrentPage = n
	return &next, nil
}

// PageCount returns the number of pages, 0 when no record survived the pipeline.
func (v *TableView) PageCount() int {
	return len(v.pages)
}

// Page returns a copy of the page at the 1-based index n. Out-of-range
// requests return an empty page rather than an error.
func (v *TableView) Page(n int) []schema.Record {
	if n < 1 || n > len(v.pages) {
		return []schema.Record{}
	}
	return schema.CloneAll(v.pages[n-1])
}

// CurrentPage returns the page selected by the snapshot's parameters.
func (v *TableView) CurrentPage() []schema.Record {
	return v.Page(v.params.CurrentPage)
}

// Len returns the number of records left after filtering and searching.
func (v *TableView) Len() int {
	return len(v.derived)
}

// Records returns a copy of every derived record in final order.
func (v *TableView) Records() []schema.Record {
	return schema.CloneAll(v.derived)
}

// Parameters returns a copy of the parameters the view was built with.
func (v *TableView) Parameters() query.ViewParameters {
	return v.params.Clone()
}

// Total returns the number of records the view was built from.
func (v *TableView) Total() int {
	return len(v.source)
}
