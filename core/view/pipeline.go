package view

import (
	"slices"
	"strings"

	"github.com/asaidimu/go-tableview/core/query"
	"github.com/asaidimu/go-tableview/core/schema"
)

// fieldSeparator joins field values in a search document. It cannot appear in
// a search term typed by a user, so a match never spans two fields.
const fieldSeparator = "\x1f"

// SearchDocument renders every value of a record as one case-folded string.
// Values are taken in sorted field order; nil values are skipped.
func SearchDocument(r schema.Record) string {
	var sb strings.Builder
	wrote := false
	for _, field := range r.Fields() {
		v := r[field]
		if v == nil {
			continue
		}
		if wrote {
			sb.WriteString(fieldSeparator)
		}
		sb.WriteString(query.Format(v))
		wrote = true
	}
	return query.Fold(sb.String())
}

// Search keeps the records whose search document contains term, ignoring case.
// An empty term keeps every record.
func Search(records []schema.Record, term string) []schema.Record {
	if term == "" {
		return records
	}
	needle := query.Fold(term)
	out := make([]schema.Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(SearchDocument(r), needle) {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a stably sorted copy of records ordered by field. A record that
// lacks the field, or holds nil in it, sorts as the minimum value. Descending
// order reverses the comparison, so ties keep their input order either way.
func Sort(records []schema.Record, field string, order query.SortDirection) []schema.Record {
	sign := 1
	if order == query.SortDirectionDesc {
		sign = -1
	}

	type keyed struct {
		key    query.Key
		record schema.Record
	}
	rows := make([]keyed, len(records))
	for i, r := range records {
		rows[i] = keyed{key: query.KeyOf(r[field]), record: r}
	}
	slices.SortStableFunc(rows, func(a, b keyed) int {
		return sign * query.CompareKeys(a.key, b.key)
	})

	out := make([]schema.Record, len(rows))
	for i, row := range rows {
		out[i] = row.record
	}
	return out
}

// Paginate splits records into consecutive chunks of at most size records.
// The last chunk may be shorter; no records yields no chunks.
func Paginate(records []schema.Record, size int) [][]schema.Record {
	if size < 1 || len(records) == 0 {
		return nil
	}
	pages := make([][]schema.Record, 0, PageCount(len(records), size))
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		pages = append(pages, records[start:end:end])
	}
	return pages
}

// PageCount returns ceil(length / size), or 0 when there is nothing to page.
func PageCount(length, size int) int {
	if size < 1 || length <= 0 {
		return 0
	}
	return (length + size - 1) / size
}
