// Package listview is the stateful side of a list view. It owns the records,
// the current view parameters and the selection. Search, sort, filter and
// record changes build a new TableView; moving between pages reuses the
// current one.
package listview

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-tableview/core/columns"
	"github.com/asaidimu/go-tableview/core/query"
	"github.com/asaidimu/go-tableview/core/schema"
	"github.com/asaidimu/go-tableview/core/selection"
	"github.com/asaidimu/go-tableview/core/view"
	"go.uber.org/zap"
)

// Options configures a ListView.
type Options struct {
	// Parameters are the initial view parameters. Nil means
	// query.DefaultParameters().
	Parameters *query.ViewParameters
	// IdentityField identifies rows for selection. Empty means
	// selection.DefaultIdentityField.
	IdentityField string
	// Columns is the column picker. Nil disables projection.
	Columns *columns.Picker
	// Matcher evaluates filters. Nil means a matcher with standard operators only.
	Matcher *query.Matcher
	Logger  *zap.Logger
	// SearchDebounce delays SearchDebounced. Zero applies terms immediately.
	SearchDebounce time.Duration
}

// ListView is a concurrency-safe controller around an immutable TableView.
type ListView struct {
	mu        sync.RWMutex
	records   []schema.Record
	params    query.ViewParameters
	view      *view.TableView
	selection *selection.Set
	picker    *columns.Picker
	matcher   *query.Matcher
	logger    *zap.Logger

	debounce  time.Duration
	timer     *time.Timer
	searchSeq uint64

	bus           *events.TypedEventBus[Event]
	subscriptions map[string]*SubscriptionInfo
	subMu         sync.RWMutex
}

// New creates a ListView over records and builds its first TableView.
func New(records []schema.Record, opts Options) (*ListView, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	matcher := opts.Matcher
	if matcher == nil {
		matcher = query.NewMatcher(logger)
	}
	params := query.DefaultParameters()
	if opts.Parameters != nil {
		params = opts.Parameters.Clone()
	}

	var picker *columns.Picker
	if opts.Columns != nil {
		if err := issuesErr(opts.Columns.Validate()); err != nil {
			return nil, fmt.Errorf("invalid column selection: %w", err)
		}
		picker = clonePicker(opts.Columns)
	}

	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}

	lv := &ListView{
		records:       schema.CloneAll(records),
		selection:     selection.New(opts.IdentityField),
		picker:        picker,
		matcher:       matcher,
		logger:        logger,
		debounce:      opts.SearchDebounce,
		bus:           bus,
		subscriptions: map[string]*SubscriptionInfo{},
	}

	tv, err := lv.build(lv.records, params)
	if err != nil {
		return nil, err
	}
	lv.commitLocked(tv)
	return lv, nil
}

// pending is the state an operation proposes before it is committed. An
// operation that finds it no longer applies sets abandon.
type pending struct {
	params  query.ViewParameters
	records []schema.Record
	abandon bool
}

// apply proposes a change, rebuilds the view for it and commits the result.
// A change whose parameters are rejected leaves the ListView untouched.
func (lv *ListView) apply(operation string, mutate func(p *pending)) error {
	start := time.Now()

	lv.mu.Lock()
	prevPage := lv.params.CurrentPage
	p := pending{params: lv.params.Clone(), records: lv.records}
	mutate(&p)
	if p.abandon {
		lv.mu.Unlock()
		return nil
	}

	tv, err := lv.build(p.records, p.params)
	if err != nil {
		s := lv.snapshot()
		lv.mu.Unlock()

		lv.logger.Warn("Rebuilding list view failed", zap.String("operation", operation), zap.Error(err))
		lv.emitEvent(createEvent(ViewRebuildFailed, operation, s, err, start))
		return fmt.Errorf("%s: %w", operation, err)
	}

	lv.records = p.records
	lv.commitLocked(tv)
	s := lv.snapshot()
	lv.mu.Unlock()

	lv.logger.Debug("Rebuilt list view",
		zap.String("operation", operation),
		zap.Int("page", s.page),
		zap.Int("pageCount", s.pageCount),
		zap.Int("total", s.total),
		zap.Duration("elapsed", time.Since(start)),
	)
	lv.emitEvent(createEvent(ViewRebuilt, operation, s, nil, start))
	if s.page != prevPage {
		lv.emitEvent(createEvent(PageChanged, operation, s, nil, start))
	}
	return nil
}

// build runs the pipeline once and moves the current page into [1, PageCount].
func (lv *ListView) build(records []schema.Record, params query.ViewParameters) (*view.TableView, error) {
	if params.CurrentPage < 1 {
		params.CurrentPage = 1
	}
	tv, err := view.New(records, params, view.WithMatcher(lv.matcher), view.WithLogger(lv.logger))
	if err != nil {
		return nil, err
	}
	page := clampPage(params.CurrentPage, tv.PageCount())
	if page == params.CurrentPage {
		return tv, nil
	}
	return tv.AtPage(page)
}

// commitLocked must be called with lv.mu held.
func (lv *ListView) commitLocked(tv *view.TableView) {
	lv.view = tv
	lv.params = tv.Parameters()
}

func clampPage(page, count int) int {
	if count < 1 {
		return 1
	}
	return max(1, min(page, count))
}

// snapshot must be called with lv.mu held.
func (lv *ListView) snapshot() state {
	return state{
		page:      lv.params.CurrentPage,
		pageCount: lv.view.PageCount(),
		total:     lv.view.Len(),
		params:    lv.params,
		selected:  lv.selection.IDs(),
	}
}

// goTo moves within the current view. The records, filters, search and sort
// are unchanged, so the cached pages are reused rather than rebuilt.
func (lv *ListView) goTo(operation string, target func(current, count int) int) error {
	start := time.Now()

	lv.mu.Lock()
	current := lv.params.CurrentPage
	count := lv.view.PageCount()
	page := clampPage(target(current, count), count)
	if page == current {
		lv.mu.Unlock()
		return nil
	}
	tv, err := lv.view.AtPage(page)
	if err != nil {
		lv.mu.Unlock()
		return fmt.Errorf("%s: %w", operation, err)
	}
	lv.commitLocked(tv)
	s := lv.snapshot()
	lv.mu.Unlock()

	lv.logger.Debug("Moved list view page",
		zap.String("operation", operation),
		zap.Int("page", s.page),
		zap.Int("pageCount", s.pageCount),
	)
	lv.emitEvent(createEvent(PageChanged, operation, s, nil, start))
	return nil
}

// First moves to page 1.
func (lv *ListView) First() error {
	return lv.goTo("first", func(int, int) int { return 1 })
}

// Previous moves back one page, staying on page 1 if already there.
func (lv *ListView) Previous() error {
	return lv.goTo("previous", func(current, _ int) int { return current - 1 })
}

// Next moves forward one page, staying on the last page if already there.
func (lv *ListView) Next() error {
	return lv.goTo("next", func(current, _ int) int { return current + 1 })
}

// Last moves to the last page.
func (lv *ListView) Last() error {
	return lv.goTo("last", func(_, count int) int { return count })
}

// GoTo moves to page n, clamped into the valid range.
func (lv *ListView) GoTo(n int) error {
	return lv.goTo("goto", func(int, int) int { return n })
}

// HasPrevious reports whether Previous would change the page.
func (lv *ListView) HasPrevious() bool {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.params.CurrentPage > 1
}

// HasNext reports whether Next would change the page.
func (lv *ListView) HasNext() bool {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.params.CurrentPage < lv.view.PageCount()
}

// SetRecords replaces the record set, keeping parameters and selection.
func (lv *ListView) SetRecords(records []schema.Record) error {
	cloned := schema.CloneAll(records)
	return lv.apply("records", func(p *pending) {
		p.records = cloned
	})
}

// SetSearchTerm applies a search term immediately and returns to page 1. Any
// debounced search still waiting is dropped.
func (lv *ListView) SetSearchTerm(term string) error {
	lv.mu.Lock()
	lv.cancelSearchLocked()
	lv.mu.Unlock()
	return lv.search(term)
}

func (lv *ListView) search(term string) error {
	return lv.apply("search", func(p *pending) {
		p.params.SearchTerm = term
		p.params.CurrentPage = 1
	})
}

// searchIfCurrent applies a debounced term unless a later search has been
// submitted since it was scheduled. The check and the change happen under the
// same lock.
func (lv *ListView) searchIfCurrent(seq uint64, term string) error {
	return lv.apply("search", func(p *pending) {
		if seq != lv.searchSeq {
			p.abandon = true
			return
		}
		lv.timer = nil
		p.params.SearchTerm = term
		p.params.CurrentPage = 1
	})
}

// SearchDebounced schedules term to be applied once no other term has been
// submitted for the debounce interval. Only the last term of a burst is
// applied. Without a debounce interval the term is applied immediately.
func (lv *ListView) SearchDebounced(term string) error {
	if lv.debounce <= 0 {
		return lv.SetSearchTerm(term)
	}

	lv.mu.Lock()
	defer lv.mu.Unlock()
	lv.cancelSearchLocked()
	seq := lv.searchSeq
	lv.timer = time.AfterFunc(lv.debounce, func() {
		if err := lv.searchIfCurrent(seq, term); err != nil {
			lv.logger.Error("Debounced search failed", zap.String("term", term), zap.Error(err))
		}
	})
	return nil
}

// cancelSearchLocked must be called with lv.mu held.
func (lv *ListView) cancelSearchLocked() {
	lv.searchSeq++
	if lv.timer != nil {
		lv.timer.Stop()
		lv.timer = nil
	}
}

// SetFilters replaces the filters and returns to page 1.
func (lv *ListView) SetFilters(filters []query.Filter) error {
	filters = slices.Clone(filters)
	return lv.apply("filter", func(p *pending) {
		p.params.Filters = filters
		p.params.CurrentPage = 1
	})
}

// SetPageSize changes the page size and returns to page 1.
func (lv *ListView) SetPageSize(size int) error {
	return lv.apply("page-size", func(p *pending) {
		p.params.PageSize = size
		p.params.CurrentPage = 1
	})
}

// SetParameters replaces every view parameter at once.
func (lv *ListView) SetParameters(params query.ViewParameters) error {
	params = params.Clone()
	return lv.apply("parameters", func(p *pending) {
		p.params = params
	})
}

// Sort orders by field. Sorting again by the current field reverses the
// direction; a new field starts ascending. The view returns to page 1.
func (lv *ListView) Sort(field string) error {
	return lv.apply("sort", func(p *pending) {
		if p.params.SortField == field {
			p.params.SortOrder = p.params.SortOrder.Reverse()
		} else {
			p.params.SortField = field
			p.params.SortOrder = query.SortDirectionAsc
		}
		p.params.CurrentPage = 1
	})
}

// changeSelection applies fn to the selection and emits SelectionChanged when
// fn reports a change.
func (lv *ListView) changeSelection(operation string, fn func(s *selection.Set, page []schema.Record) bool) bool {
	lv.mu.Lock()
	changed := fn(lv.selection, lv.view.CurrentPage())
	s := lv.snapshot()
	lv.mu.Unlock()

	if changed {
		lv.logger.Debug("Selection changed", zap.String("operation", operation), zap.Int("selected", len(s.selected)))
		lv.emitEvent(createEvent(SelectionChanged, operation, s, nil, time.Time{}))
	}
	return changed
}

// Select adds rows to the selection.
func (lv *ListView) Select(ids ...string) bool {
	return lv.changeSelection("select", func(s *selection.Set, _ []schema.Record) bool {
		before := s.Len()
		s.Select(ids...)
		return s.Len() != before
	})
}

// Deselect removes rows from the selection.
func (lv *ListView) Deselect(ids ...string) bool {
	return lv.changeSelection("deselect", func(s *selection.Set, _ []schema.Record) bool {
		before := s.Len()
		s.Deselect(ids...)
		return s.Len() != before
	})
}

// Toggle flips the selection of one row.
func (lv *ListView) Toggle(id string) bool {
	return lv.changeSelection("toggle", func(s *selection.Set, _ []schema.Record) bool {
		if id == "" {
			return false
		}
		s.Toggle(id)
		return true
	})
}

// ClearSelection unselects every row.
func (lv *ListView) ClearSelection() bool {
	return lv.changeSelection("clear", func(s *selection.Set, _ []schema.Record) bool {
		before := s.Len()
		s.Clear()
		return before > 0
	})
}

// ReconcileSelection takes the ids a table reports as checked on the current
// page and updates the selection of that page's rows accordingly.
func (lv *ListView) ReconcileSelection(ids []string) bool {
	return lv.changeSelection("reconcile", func(s *selection.Set, page []schema.Record) bool {
		return s.Reconcile(page, ids)
	})
}

// SelectedIDs returns every selected id, sorted.
func (lv *ListView) SelectedIDs() []string {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.selection.IDs()
}

// DisplayedSelection returns the selected ids of the current page in page order.
func (lv *ListView) DisplayedSelection() []string {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.selection.Displayed(lv.view.CurrentPage())
}

// SelectedRecords returns every selected record in view order, including rows
// on other pages. Rows hidden by the current filters or search are left out.
func (lv *ListView) SelectedRecords() []schema.Record {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	out := make([]schema.Record, 0, lv.selection.Len())
	for _, r := range lv.view.Records() {
		if id, ok := lv.selection.ID(r); ok && lv.selection.Contains(id) {
			out = append(out, r)
		}
	}
	return out
}

// SetColumns changes the visible columns. The change is rejected when it breaks
// the picker's bounds or names an unknown column.
func (lv *ListView) SetColumns(fields []string) error {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	if lv.picker == nil {
		return errors.New("list view has no column picker")
	}
	next := clonePicker(lv.picker)
	next.Selected = slices.Clone(fields)
	if err := issuesErr(next.Validate()); err != nil {
		return fmt.Errorf("invalid column selection: %w", err)
	}
	lv.picker = next
	return nil
}

// VisibleColumns returns the columns shown, or nil without a column picker.
func (lv *ListView) VisibleColumns() []columns.Column {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	if lv.picker == nil {
		return nil
	}
	return lv.picker.Visible()
}

// Page returns the records of the current page.
func (lv *ListView) Page() []schema.Record {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.view.CurrentPage()
}

// Rows returns the current page projected onto the visible columns. The
// identity field is always kept so rows stay selectable.
func (lv *ListView) Rows() []schema.Record {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	page := lv.view.CurrentPage()
	if lv.picker == nil {
		return page
	}
	fields := lv.picker.Fields()
	if !slices.Contains(fields, lv.selection.IdentityField()) {
		fields = append(fields, lv.selection.IdentityField())
	}
	return columns.Project(page, fields)
}

// CurrentPage returns the 1-based index of the current page.
func (lv *ListView) CurrentPage() int {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.params.CurrentPage
}

// PageCount returns the number of pages of the current view.
func (lv *ListView) PageCount() int {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.view.PageCount()
}

// Len returns the number of records left after filtering and searching.
func (lv *ListView) Len() int {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.view.Len()
}

// Parameters returns a copy of the current view parameters.
func (lv *ListView) Parameters() query.ViewParameters {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.params.Clone()
}

// View returns the current TableView. It is immutable and safe to keep.
func (lv *ListView) View() *view.TableView {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.view
}

// Close drops any pending debounced search and every subscription.
func (lv *ListView) Close() {
	lv.mu.Lock()
	lv.cancelSearchLocked()
	lv.mu.Unlock()

	lv.subMu.Lock()
	defer lv.subMu.Unlock()
	for id, info := range lv.subscriptions {
		info.Unsubscribe()
		delete(lv.subscriptions, id)
	}
}

func clonePicker(p *columns.Picker) *columns.Picker {
	return &columns.Picker{
		Options:  slices.Clone(p.Options),
		Selected: slices.Clone(p.Selected),
		Min:      p.Min,
		Max:      p.Max,
	}
}

func issuesErr(result schema.ValidationResult) error {
	if result.Valid {
		return nil
	}
	var errs []error
	for _, issue := range result.Issues {
		if issue.Severity == "error" {
			errs = append(errs, fmt.Errorf("%s: %s", issue.Code, issue.Message))
		}
	}
	return errors.Join(errs...)
}

func zapSubscription(id string, event EventType) []zap.Field {
	return []zap.Field{zap.String("subscriptionId", id), zap.String("event", string(event))}
}
