package view

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/asaidimu/go-tableview/core/query"
	"github.com/asaidimu/go-tableview/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func people() []schema.Record {
	return []schema.Record{
		{"id": "1", "name": "Bob"},
		{"id": "2", "name": "Amy"},
		{"id": "3", "name": "Cid"},
	}
}

func TestNew_Scenarios(t *testing.T) {
	t.Run("Sorted by name, two per page", func(t *testing.T) {
		params := query.NewParametersBuilder().PageSize(2).Page(1).OrderByAsc("name").Build()
		v, err := New(people(), params)
		require.NoError(t, err)

		assert.Equal(t, 2, v.PageCount())
		assert.Equal(t, []schema.Record{{"id": "2", "name": "Amy"}, {"id": "1", "name": "Bob"}}, v.Page(1))
		assert.Equal(t, []schema.Record{{"id": "3", "name": "Cid"}}, v.Page(2))
	})

	t.Run("Case-insensitive search", func(t *testing.T) {
		params := query.NewParametersBuilder().PageSize(2).OrderByAsc("name").Search("cid").Build()
		v, err := New(people(), params)
		require.NoError(t, err)

		assert.Equal(t, 1, v.PageCount())
		assert.Equal(t, []schema.Record{{"id": "3", "name": "Cid"}}, v.Page(1))
	})

	t.Run("Empty record set", func(t *testing.T) {
		v, err := New(nil, query.DefaultParameters())
		require.NoError(t, err)

		assert.Equal(t, 0, v.PageCount())
		assert.Empty(t, v.Page(1))
		assert.NotNil(t, v.Page(1))
		assert.Empty(t, v.CurrentPage())
	})

	t.Run("Five records, two per page", func(t *testing.T) {
		records := make([]schema.Record, 5)
		for i := range records {
			records[i] = schema.Record{"Id": fmt.Sprintf("%d", i)}
		}
		v, err := New(records, query.NewParametersBuilder().PageSize(2).Build())
		require.NoError(t, err)

		require.Equal(t, 3, v.PageCount())
		assert.Len(t, v.Page(1), 2)
		assert.Len(t, v.Page(2), 2)
		assert.Len(t, v.Page(3), 1)
	})
}

func TestNew_OutOfRangePages(t *testing.T) {
	v, err := New(people(), query.NewParametersBuilder().PageSize(2).Build())
	require.NoError(t, err)

	assert.Empty(t, v.Page(0))
	assert.Empty(t, v.Page(-3))
	assert.Empty(t, v.Page(v.PageCount()+1))
}

func TestNew_CurrentPage(t *testing.T) {
	v, err := New(people(), query.NewParametersBuilder().PageSize(1).Page(2).OrderByAsc("name").Build())
	require.NoError(t, err)
	assert.Equal(t, []schema.Record{{"id": "1", "name": "Bob"}}, v.CurrentPage())

	v, err = New(people(), query.NewParametersBuilder().PageSize(1).Page(9).Build())
	require.NoError(t, err)
	assert.Empty(t, v.CurrentPage())
}

func TestNew_ContractViolations(t *testing.T) {
	tests := []struct {
		name   string
		params query.ViewParameters
		field  string
	}{
		{"zero page size", query.NewParametersBuilder().PageSize(0).Build(), "pageSize"},
		{"negative page size", query.NewParametersBuilder().PageSize(-1).Build(), "pageSize"},
		{"zero current page", query.NewParametersBuilder().Page(0).Build(), "currentPage"},
		{"unknown sort order", query.NewParametersBuilder().OrderBy("name", "up").Build(), "sortOrder"},
		{"unknown operator", query.NewParametersBuilder().Where("name").Custom("sounds_like", "bob").Build(), "filters[0].operator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New(people(), tt.params)
			require.Error(t, err)
			assert.Nil(t, v)

			var cv query.ContractViolationError
			require.ErrorAs(t, err, &cv)
			assert.Equal(t, tt.field, cv.Field)
		})
	}

	t.Run("Empty records still validate parameters", func(t *testing.T) {
		_, err := New(nil, query.NewParametersBuilder().PageSize(0).Build())
		assert.True(t, query.IsContractViolation(err))
	})
}

func TestNew_Filters(t *testing.T) {
	records := []schema.Record{
		{"Id": "1", "stage": "Open", "amount": 10},
		{"Id": "2", "stage": "Closed", "amount": 20},
		{"Id": "3", "stage": "Open", "amount": 30},
		{"Id": "4", "stage": "Open"},
	}

	t.Run("Filters combine with AND", func(t *testing.T) {
		params := query.NewParametersBuilder().Where("stage").Eq("Open").Where("amount").Gt(15).Build()
		v, err := New(records, params)
		require.NoError(t, err)
		assert.Equal(t, []schema.Record{{"Id": "3", "stage": "Open", "amount": 30}}, v.Records())
	})

	t.Run("Filter order does not matter", func(t *testing.T) {
		a, err := New(records, query.NewParametersBuilder().Where("stage").Eq("Open").Where("amount").Gt(15).Build())
		require.NoError(t, err)
		b, err := New(records, query.NewParametersBuilder().Where("amount").Gt(15).Where("stage").Eq("Open").Build())
		require.NoError(t, err)
		assert.Equal(t, a.Records(), b.Records())
	})

	t.Run("Filtering runs before search", func(t *testing.T) {
		params := query.NewParametersBuilder().Where("stage").Eq("Closed").Search("open").Build()
		v, err := New(records, params)
		require.NoError(t, err)
		assert.Equal(t, 0, v.PageCount())
		assert.Equal(t, 0, v.Len())
		assert.Equal(t, 4, v.Total())
	})

	t.Run("Custom predicates through a shared matcher", func(t *testing.T) {
		m := query.NewMatcher(zap.NewNop())
		m.RegisterPredicate("multiple_of", func(r schema.Record, field string, value query.FilterValue) (bool, error) {
			n, ok := r[field].(int)
			if !ok {
				return false, nil
			}
			return n%value.(int) == 0, nil
		})
		params := query.NewParametersBuilder().Where("amount").Custom("multiple_of", 20).Build()
		v, err := New(records, params, WithMatcher(m))
		require.NoError(t, err)
		assert.Equal(t, []schema.Record{{"Id": "2", "stage": "Closed", "amount": 20}}, v.Records())
	})
}

func TestNew_Sorting(t *testing.T) {
	t.Run("Numeric fields sort numerically", func(t *testing.T) {
		records := []schema.Record{{"Id": "a", "amount": 100}, {"Id": "b", "amount": 9}, {"Id": "c", "amount": 20.5}}
		v, err := New(records, query.NewParametersBuilder().OrderByAsc("amount").Build())
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c", "a"}, ids(v.Records(), "Id"))
	})

	t.Run("Text sorts case-insensitively", func(t *testing.T) {
		records := []schema.Record{{"Id": "1", "name": "bob"}, {"Id": "2", "name": "Amy"}, {"Id": "3", "name": "carl"}}
		v, err := New(records, query.NewParametersBuilder().OrderByAsc("name").Build())
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "1", "3"}, ids(v.Records(), "Id"))
	})

	t.Run("Descending reverses the order", func(t *testing.T) {
		v, err := New(people(), query.NewParametersBuilder().OrderByDesc("name").Build())
		require.NoError(t, err)
		assert.Equal(t, []string{"3", "1", "2"}, ids(v.Records(), "id"))
	})

	t.Run("Missing sort field sorts as the minimum", func(t *testing.T) {
		records := []schema.Record{
			{"Id": "1", "amount": 5},
			{"Id": "2"},
			{"Id": "3", "amount": 1},
			{"Id": "4", "amount": nil},
		}
		asc, err := New(records, query.NewParametersBuilder().OrderByAsc("amount").Build())
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "4", "3", "1"}, ids(asc.Records(), "Id"))

		desc, err := New(records, query.NewParametersBuilder().OrderByDesc("amount").Build())
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "3", "2", "4"}, ids(desc.Records(), "Id"))
	})

	t.Run("Default sort field absent everywhere keeps input order", func(t *testing.T) {
		v, err := New(people(), query.DefaultParameters())
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2", "3"}, ids(v.Records(), "id"))
	})

	t.Run("Stable in both directions", func(t *testing.T) {
		records := []schema.Record{
			{"Id": "1", "stage": "b"},
			{"Id": "2", "stage": "a"},
			{"Id": "3", "stage": "B"},
			{"Id": "4", "stage": "a"},
			{"Id": "5", "stage": "b"},
		}
		asc, err := New(records, query.NewParametersBuilder().OrderByAsc("stage").Build())
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "4", "1", "3", "5"}, ids(asc.Records(), "Id"))

		desc, err := New(records, query.NewParametersBuilder().OrderByDesc("stage").Build())
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "3", "5", "2", "4"}, ids(desc.Records(), "Id"))
	})
}

func TestNew_PagingProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := rng.Intn(60)
		size := rng.Intn(12) + 1
		records := make([]schema.Record, n)
		for i := range records {
			records[i] = schema.Record{"Id": fmt.Sprintf("%03d", i), "score": rng.Intn(5)}
		}

		params := query.NewParametersBuilder().PageSize(size).OrderByDesc("score").Build()
		v, err := New(records, params)
		require.NoError(t, err)

		assert.Equal(t, PageCount(v.Len(), size), v.PageCount())

		total := 0
		for p := 1; p <= v.PageCount(); p++ {
			page := v.Page(p)
			if p < v.PageCount() {
				assert.Len(t, page, size)
			} else {
				assert.GreaterOrEqual(t, len(page), 1)
				assert.LessOrEqual(t, len(page), size)
			}
			total += len(page)
		}
		assert.Equal(t, v.Len(), total)
		assert.Empty(t, v.Page(0))
		assert.Empty(t, v.Page(v.PageCount()+1))
	}
}

func TestNew_Idempotent(t *testing.T) {
	records := people()
	params := query.NewParametersBuilder().PageSize(2).OrderByDesc("name").Search("i").Build()

	a, err := New(records, params)
	require.NoError(t, err)
	b, err := New(records, params)
	require.NoError(t, err)

	require.Equal(t, a.PageCount(), b.PageCount())
	for p := 1; p <= a.PageCount(); p++ {
		assert.Equal(t, a.Page(p), b.Page(p))
	}
}

func TestTableView_Immutable(t *testing.T) {
	records := people()
	params := query.NewParametersBuilder().PageSize(2).OrderByAsc("name").Build()
	v, err := New(records, params)
	require.NoError(t, err)

	records[0]["name"] = "Zed"
	params.PageSize = 1

	page := v.Page(1)
	page[0]["name"] = "Changed"
	page[1] = schema.Record{"id": "x"}

	assert.Equal(t, []schema.Record{{"id": "2", "name": "Amy"}, {"id": "1", "name": "Bob"}}, v.Page(1))
	assert.Equal(t, 2, v.Parameters().PageSize)
}

func TestTableView_With(t *testing.T) {
	v, err := New(people(), query.NewParametersBuilder().PageSize(2).OrderByAsc("name").Build())
	require.NoError(t, err)

	next, err := v.With(query.From(v.Parameters()).Search("bob").Build())
	require.NoError(t, err)

	assert.Equal(t, 2, v.PageCount())
	assert.Equal(t, 1, next.PageCount())
	assert.Equal(t, "bob", next.Parameters().SearchTerm)

	_, err = v.With(query.From(v.Parameters()).PageSize(0).Build())
	assert.True(t, query.IsContractViolation(err))
}

func TestTableView_AtPage(t *testing.T) {
	v, err := New(people(), query.NewParametersBuilder().PageSize(2).OrderByAsc("name").Build())
	require.NoError(t, err)

	second, err := v.AtPage(2)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Parameters().CurrentPage)
	assert.Equal(t, []string{"3"}, ids(second.CurrentPage(), "id"))
	assert.Equal(t, 1, v.Parameters().CurrentPage, "receiver keeps its page")
	assert.Equal(t, []string{"2", "1"}, ids(v.CurrentPage(), "id"))

	// The pipeline is not run again: the derived pages are the same slices.
	assert.Same(t, &v.pages[0][0], &second.pages[0][0])
	assert.Equal(t, v.Total(), second.Total())

	past, err := v.AtPage(9)
	require.NoError(t, err)
	assert.Empty(t, past.CurrentPage())

	_, err = v.AtPage(0)
	assert.True(t, query.IsContractViolation(err))
}

func ids(records []schema.Record, field string) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = fmt.Sprint(r[field])
	}
	return out
}
