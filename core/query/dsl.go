// Package query defines the small Domain-Specific Language (DSL) that drives a
// list view: filter descriptors, sort directions and the view parameters that
// combine them with paging and search.
package query

// ComparisonOperator defines the set of operators that can be used in a filter.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEq          ComparisonOperator = "eq"
	ComparisonOperatorNeq         ComparisonOperator = "neq"
	ComparisonOperatorLt          ComparisonOperator = "lt"
	ComparisonOperatorLte         ComparisonOperator = "lte"
	ComparisonOperatorGt          ComparisonOperator = "gt"
	ComparisonOperatorGte         ComparisonOperator = "gte"
	ComparisonOperatorIn          ComparisonOperator = "in"
	ComparisonOperatorNin         ComparisonOperator = "nin"
	ComparisonOperatorContains    ComparisonOperator = "contains"
	ComparisonOperatorNotContains ComparisonOperator = "ncontains"
	ComparisonOperatorStartsWith  ComparisonOperator = "startswith"
	ComparisonOperatorEndsWith    ComparisonOperator = "endswith"
	ComparisonOperatorExists      ComparisonOperator = "exists"
	ComparisonOperatorNotExists   ComparisonOperator = "nexists"
)

// FilterValue represents the value used in a filter. It can be of any scalar
// type, or a slice of scalars for the in/nin operators.
type FilterValue any

// Filter is a predicate descriptor applied to a single field of a record.
type Filter struct {
	Field    string             `json:"field"`
	Operator ComparisonOperator `json:"operator"`
	Value    FilterValue        `json:"value,omitempty"`
}

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// Valid reports whether d is one of the two recognized directions.
func (d SortDirection) Valid() bool {
	return d == SortDirectionAsc || d == SortDirectionDesc
}

// Reverse returns the opposite direction.
func (d SortDirection) Reverse() SortDirection {
	if d == SortDirectionDesc {
		return SortDirectionAsc
	}
	return SortDirectionDesc
}

// Defaults applied by DefaultParameters.
const (
	DefaultPageSize    = 100
	DefaultCurrentPage = 1
	DefaultSortField   = "Id"
)

// ViewParameters is the set of user-controllable inputs that determine the
// derived view of a record set.
type ViewParameters struct {
	PageSize    int           `json:"pageSize" toml:"page_size"`
	CurrentPage int           `json:"currentPage" toml:"current_page"`
	Filters     []Filter      `json:"filters,omitempty" toml:"-"`
	SearchTerm  string        `json:"searchTerm,omitempty" toml:"search_term"`
	SortField   string        `json:"sortField" toml:"sort_field"`
	SortOrder   SortDirection `json:"sortOrder" toml:"sort_order"`
}

// DefaultParameters returns parameters with every field set to its default.
func DefaultParameters() ViewParameters {
	return ViewParameters{
		PageSize:    DefaultPageSize,
		CurrentPage: DefaultCurrentPage,
		SortField:   DefaultSortField,
		SortOrder:   SortDirectionAsc,
	}
}

// Clone returns a copy whose filter slice is not shared with p.
func (p ViewParameters) Clone() ViewParameters {
	out := p
	if p.Filters != nil {
		out.Filters = make([]Filter, len(p.Filters))
		copy(out.Filters, p.Filters)
	}
	return out
}

// standardComparisonOperators is a set of all the standard, built-in comparison operators.
var standardComparisonOperators = map[ComparisonOperator]struct{}{
	ComparisonOperatorEq:          {},
	ComparisonOperatorNeq:         {},
	ComparisonOperatorLt:          {},
	ComparisonOperatorLte:         {},
	ComparisonOperatorGt:          {},
	ComparisonOperatorGte:         {},
	ComparisonOperatorIn:          {},
	ComparisonOperatorNin:         {},
	ComparisonOperatorContains:    {},
	ComparisonOperatorNotContains: {},
	ComparisonOperatorStartsWith:  {},
	ComparisonOperatorEndsWith:    {},
	ComparisonOperatorExists:      {},
	ComparisonOperatorNotExists:   {},
}

// IsStandard checks if a comparison operator is one of the standard, built-in operators.
func (c ComparisonOperator) IsStandard() bool {
	_, ok := standardComparisonOperators[c]
	return ok
}

// GetStandardComparisonOperators returns a map of all standard comparison operators.
func GetStandardComparisonOperators() map[ComparisonOperator]struct{} {
	return standardComparisonOperators
}
