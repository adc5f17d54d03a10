package query

import (
	"fmt"
	"strings"
)

// ParametersBuilder provides a fluent API for building ViewParameters. It
// starts from DefaultParameters, so only the inputs that differ from the
// defaults need to be set.
type ParametersBuilder struct {
	params ViewParameters
}

// NewParametersBuilder creates a builder seeded with the default parameters.
func NewParametersBuilder() *ParametersBuilder {
	return &ParametersBuilder{params: DefaultParameters()}
}

// From creates a builder seeded with a copy of existing parameters.
func From(p ViewParameters) *ParametersBuilder {
	return &ParametersBuilder{params: p.Clone()}
}

// Build returns a copy of the constructed parameters.
func (b *ParametersBuilder) Build() ViewParameters {
	return b.params.Clone()
}

// Clone creates a copy of the builder that can diverge from the original.
func (b *ParametersBuilder) Clone() *ParametersBuilder {
	return &ParametersBuilder{params: b.params.Clone()}
}

// Reset returns the builder to the default parameters.
func (b *ParametersBuilder) Reset() *ParametersBuilder {
	b.params = DefaultParameters()
	return b
}

// PageSize sets the number of records per page.
func (b *ParametersBuilder) PageSize(size int) *ParametersBuilder {
	b.params.PageSize = size
	return b
}

// Page sets the 1-based current page.
func (b *ParametersBuilder) Page(page int) *ParametersBuilder {
	b.params.CurrentPage = page
	return b
}

// Search sets the free-text search term.
func (b *ParametersBuilder) Search(term string) *ParametersBuilder {
	b.params.SearchTerm = term
	return b
}

// OrderBy sets the sort field and direction.
func (b *ParametersBuilder) OrderBy(field string, direction SortDirection) *ParametersBuilder {
	b.params.SortField = field
	b.params.SortOrder = direction
	return b
}

// OrderByAsc sorts ascending on field.
func (b *ParametersBuilder) OrderByAsc(field string) *ParametersBuilder {
	return b.OrderBy(field, SortDirectionAsc)
}

// OrderByDesc sorts descending on field.
func (b *ParametersBuilder) OrderByDesc(field string) *ParametersBuilder {
	return b.OrderBy(field, SortDirectionDesc)
}

// Filter appends a ready-made filter.
func (b *ParametersBuilder) Filter(filters ...Filter) *ParametersBuilder {
	b.params.Filters = append(b.params.Filters, filters...)
	return b
}

// ClearFilters removes every filter.
func (b *ParametersBuilder) ClearFilters() *ParametersBuilder {
	b.params.Filters = nil
	return b
}

// Where begins the construction of a filter on a specific field.
func (b *ParametersBuilder) Where(field string) *FilterConditionBuilder {
	return &FilterConditionBuilder{parent: b, field: field}
}

// FilterConditionBuilder is used to build a single filter (e.g., field = value).
type FilterConditionBuilder struct {
	parent *ParametersBuilder
	field  string
}

// Eq adds an equality filter.
func (fcb *FilterConditionBuilder) Eq(value FilterValue) *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorEq, value)
}

// Neq adds a not-equal filter.
func (fcb *FilterConditionBuilder) Neq(value FilterValue) *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorNeq, value)
}

// Lt adds a less-than filter.
func (fcb *FilterConditionBuilder) Lt(value FilterValue) *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorLt, value)
}

// Lte adds a less-than-or-equal filter.
func (fcb *FilterConditionBuilder) Lte(value FilterValue) *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorLte, value)
}

// Gt adds a greater-than filter.
func (fcb *FilterConditionBuilder) Gt(value FilterValue) *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorGt, value)
}

// Gte adds a greater-than-or-equal filter.
func (fcb *FilterConditionBuilder) Gte(value FilterValue) *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorGte, value)
}

// In adds a filter checking that the field's value is one of values.
func (fcb *FilterConditionBuilder) In(values ...FilterValue) *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorIn, values)
}

// Nin adds a filter checking that the field's value is none of values.
func (fcb *FilterConditionBuilder) Nin(values ...FilterValue) *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorNin, values)
}

// Contains adds a case-insensitive substring filter.
func (fcb *FilterConditionBuilder) Contains(value FilterValue) *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorContains, value)
}

// NotContains adds a negated case-insensitive substring filter.
func (fcb *FilterConditionBuilder) NotContains(value FilterValue) *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorNotContains, value)
}

// StartsWith adds a case-insensitive prefix filter.
func (fcb *FilterConditionBuilder) StartsWith(value FilterValue) *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorStartsWith, value)
}

// EndsWith adds a case-insensitive suffix filter.
func (fcb *FilterConditionBuilder) EndsWith(value FilterValue) *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorEndsWith, value)
}

// Exists adds a filter checking the field is present and not null.
func (fcb *FilterConditionBuilder) Exists() *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorExists, nil)
}

// NotExists adds a filter checking the field is absent or null.
func (fcb *FilterConditionBuilder) NotExists() *ParametersBuilder {
	return fcb.addCondition(ComparisonOperatorNotExists, nil)
}

// Custom allows for the use of a registered custom operator.
func (fcb *FilterConditionBuilder) Custom(operator ComparisonOperator, value FilterValue) *ParametersBuilder {
	return fcb.addCondition(operator, value)
}

func (fcb *FilterConditionBuilder) addCondition(operator ComparisonOperator, value FilterValue) *ParametersBuilder {
	fcb.parent.params.Filters = append(fcb.parent.params.Filters, Filter{
		Field:    fcb.field,
		Operator: operator,
		Value:    value,
	})
	return fcb.parent
}

// Validate checks the built parameters using only the standard operators.
// Use Matcher.Validate when custom predicates are registered.
func (b *ParametersBuilder) Validate() ValidationResult {
	return NewMatcher(nil).Validate(b.params)
}

// String returns a human-readable representation of the built parameters.
func (b *ParametersBuilder) String() string {
	p := b.params
	parts := []string{
		fmt.Sprintf("PAGE: %d/%d", p.CurrentPage, p.PageSize),
		fmt.Sprintf("ORDER BY: %s %s", p.SortField, p.SortOrder),
	}

	if len(p.Filters) > 0 {
		filters := make([]string, len(p.Filters))
		for i, f := range p.Filters {
			filters[i] = fmt.Sprintf("%s %s %v", f.Field, f.Operator, f.Value)
		}
		parts = append(parts, fmt.Sprintf("FILTERS: %s", strings.Join(filters, " AND ")))
	}

	if p.SearchTerm != "" {
		parts = append(parts, fmt.Sprintf("SEARCH: %q", p.SearchTerm))
	}

	return strings.Join(parts, " | ")
}
