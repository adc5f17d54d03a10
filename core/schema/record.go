// Package schema defines the data shapes shared by every layer of the list
// view: flat records, the delimiter-joined key scheme used to flatten nested
// values, and the issue type used for validation reporting.
package schema

import (
	"maps"
	"sort"
)

// DefaultDelimiter joins the keys of nested objects when a record is flattened.
const DefaultDelimiter = "."

// Record is one row of data: a flat mapping from field name to a scalar value
// (string, number, bool, time.Time or nil). Field names are data-driven and
// unknown at compile time, which is why a map is used instead of a struct.
type Record map[string]any

// Clone returns a shallow copy of the record. Values are scalars, so a shallow
// copy is enough to keep the original untouched.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Fields returns the record's field names in sorted order.
func (r Record) Fields() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the value stored under field and whether the field is present.
func (r Record) Lookup(field string) (any, bool) {
	v, ok := r[field]
	return v, ok
}

// CloneAll copies every record of a slice.
func CloneAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// Flatten turns a nested object into a flat Record. Keys of nested objects are
// joined to their parent key with delimiter, so {"Account": {"Name": "Acme"}}
// becomes {"Account.Name": "Acme"} with the default delimiter. Slices are kept
// as-is; an empty delimiter falls back to DefaultDelimiter.
func Flatten(nested map[string]any, delimiter string) Record {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	out := make(Record, len(nested))
	flattenInto(out, "", nested, delimiter)
	return out
}

func flattenInto(out Record, prefix string, nested map[string]any, delimiter string) {
	for key, value := range nested {
		name := key
		if prefix != "" {
			name = prefix + delimiter + key
		}
		switch v := value.(type) {
		case map[string]any:
			if len(v) == 0 {
				out[name] = nil
				continue
			}
			flattenInto(out, name, v, delimiter)
		case Record:
			flattenInto(out, name, v, delimiter)
		default:
			out[name] = value
		}
	}
}

// Issue represents a validation or operational issue.
type Issue struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Path        string `json:"path,omitempty"`
	Severity    string `json:"severity,omitempty"` // e.g., "error", "warning"
	Description string `json:"description,omitempty"`
}

// ValidationResult groups the issues found while validating a value.
type ValidationResult struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}
