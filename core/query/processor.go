package query

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/asaidimu/go-tableview/core/schema"
	"go.uber.org/zap"
)

// PredicateFunction is a pure Go function that performs custom filtering logic
// on a record. It returns true if the record passes the filter.
type PredicateFunction func(record schema.Record, field string, value FilterValue) (bool, error)

// Matcher evaluates filters against in-memory records. Standard operators are
// built in; any other operator must be registered as a PredicateFunction
// before it is used.
type Matcher struct {
	predicates map[ComparisonOperator]PredicateFunction
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewMatcher creates a new Matcher instance.
func NewMatcher(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		predicates: make(map[ComparisonOperator]PredicateFunction),
		logger:     logger,
	}
}

// RegisterPredicate registers a Go function for a custom operator. Standard
// operators cannot be replaced.
func (m *Matcher) RegisterPredicate(operator ComparisonOperator, fn PredicateFunction) {
	if operator.IsStandard() {
		m.logger.Warn("Ignoring predicate for standard operator", zap.String("operator", string(operator)))
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predicates[operator] = fn
	m.logger.Info("Registered predicate", zap.String("operator", string(operator)))
}

// RegisterPredicates registers multiple predicates from a map.
func (m *Matcher) RegisterPredicates(functionMap map[ComparisonOperator]PredicateFunction) {
	for operator, fn := range functionMap {
		m.RegisterPredicate(operator, fn)
	}
}

// Supports reports whether the operator is standard or has a registered predicate.
func (m *Matcher) Supports(operator ComparisonOperator) bool {
	if operator.IsStandard() {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.predicates[operator]
	return ok
}

// Validate checks view parameters against their basic type constraints and
// against the operators this matcher knows about.
func (m *Matcher) Validate(p ViewParameters) ValidationResult {
	var errors []ContractViolationError

	if p.PageSize < 1 {
		errors = append(errors, ContractViolationError{
			Field:   "pageSize",
			Message: fmt.Sprintf("must be a positive integer, got %d", p.PageSize),
		})
	}
	if p.CurrentPage < 1 {
		errors = append(errors, ContractViolationError{
			Field:   "currentPage",
			Message: fmt.Sprintf("must be a positive integer, got %d", p.CurrentPage),
		})
	}
	if !p.SortOrder.Valid() {
		errors = append(errors, ContractViolationError{
			Field:   "sortOrder",
			Message: fmt.Sprintf("must be %q or %q, got %q", SortDirectionAsc, SortDirectionDesc, p.SortOrder),
		})
	}

	for i, f := range p.Filters {
		if f.Field == "" {
			errors = append(errors, ContractViolationError{
				Field:   fmt.Sprintf("filters[%d].field", i),
				Message: "field cannot be empty",
			})
		}
		if !m.Supports(f.Operator) {
			errors = append(errors, ContractViolationError{
				Field:   fmt.Sprintf("filters[%d].operator", i),
				Message: fmt.Sprintf("unknown operator %q", f.Operator),
			})
		}
		if f.Operator == ComparisonOperatorIn || f.Operator == ComparisonOperatorNin {
			if _, ok := toSlice(f.Value); !ok {
				errors = append(errors, ContractViolationError{
					Field:   fmt.Sprintf("filters[%d].value", i),
					Message: fmt.Sprintf("operator %s requires a list value, got %T", f.Operator, f.Value),
				})
			}
		}
	}

	return ValidationResult{
		IsValid: len(errors) == 0,
		Errors:  errors,
	}
}

// Match evaluates a record against every filter (logical AND). A record with
// no filters always matches.
func (m *Matcher) Match(record schema.Record, filters []Filter) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.match(record, filters)
}

func (m *Matcher) match(record schema.Record, filters []Filter) (bool, error) {
	for i := range filters {
		passes, err := m.evaluate(record, &filters[i])
		if err != nil || !passes {
			return false, err
		}
	}
	return true, nil
}

// Apply keeps the records that satisfy every filter, preserving their order.
// A predicate that fails for a record excludes that record; the failure is
// logged rather than returned so filtering stays total.
func (m *Matcher) Apply(records []schema.Record, filters []Filter) []schema.Record {
	if len(filters) == 0 {
		return records
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	filtered := make([]schema.Record, 0, len(records))
	for _, record := range records {
		passes, err := m.match(record, filters)
		if err != nil {
			m.logger.Warn("Filter evaluation failed, excluding record", zap.Error(err))
			continue
		}
		if passes {
			filtered = append(filtered, record)
		}
	}
	m.logger.Debug("Records remaining after filters", zap.Int("count", len(filtered)))
	return filtered
}

// evaluate applies a single filter, dispatching to a registered predicate for
// non-standard operators.
func (m *Matcher) evaluate(record schema.Record, filter *Filter) (bool, error) {
	if !filter.Operator.IsStandard() {
		fn, ok := m.predicates[filter.Operator]
		if !ok {
			return false, fmt.Errorf("unregistered predicate for operator: %s", filter.Operator)
		}
		return fn(record, filter.Field, filter.Value)
	}
	return evaluateStandard(record, filter), nil
}

// evaluateStandard performs the in-memory evaluation of standard operators.
// A missing field fails every operator except nexists.
func evaluateStandard(record schema.Record, filter *Filter) bool {
	value, ok := record.Lookup(filter.Field)
	if !ok {
		return filter.Operator == ComparisonOperatorNotExists
	}

	switch filter.Operator {
	case ComparisonOperatorExists:
		return value != nil
	case ComparisonOperatorNotExists:
		return value == nil
	case ComparisonOperatorEq:
		return Equal(value, filter.Value)
	case ComparisonOperatorNeq:
		return !Equal(value, filter.Value)
	case ComparisonOperatorLt, ComparisonOperatorLte, ComparisonOperatorGt, ComparisonOperatorGte:
		if value == nil || filter.Value == nil || kindOf(value) != kindOf(filter.Value) {
			return false
		}
		c := Compare(value, filter.Value)
		switch filter.Operator {
		case ComparisonOperatorLt:
			return c < 0
		case ComparisonOperatorLte:
			return c <= 0
		case ComparisonOperatorGt:
			return c > 0
		default:
			return c >= 0
		}
	case ComparisonOperatorIn, ComparisonOperatorNin:
		found := false
		values, _ := toSlice(filter.Value)
		for _, candidate := range values {
			if Equal(value, candidate) {
				found = true
				break
			}
		}
		if filter.Operator == ComparisonOperatorIn {
			return found
		}
		return !found
	case ComparisonOperatorContains:
		return strings.Contains(Fold(Format(value)), Fold(Format(filter.Value)))
	case ComparisonOperatorNotContains:
		return !strings.Contains(Fold(Format(value)), Fold(Format(filter.Value)))
	case ComparisonOperatorStartsWith:
		return strings.HasPrefix(Fold(Format(value)), Fold(Format(filter.Value)))
	case ComparisonOperatorEndsWith:
		return strings.HasSuffix(Fold(Format(value)), Fold(Format(filter.Value)))
	default:
		return false
	}
}

// toSlice converts any slice or array value into []any.
func toSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
