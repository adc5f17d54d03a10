// Package columns holds the column metadata of a list view and the state of
// the column picker: which fields are available, which are shown, and the
// bounds on how many may be shown.
package columns

import (
	"fmt"

	"github.com/asaidimu/go-tableview/core/schema"
)

// Column describes one displayable field.
type Column struct {
	Label     string `json:"label" toml:"label"`
	FieldName string `json:"fieldName" toml:"field_name"`
	Type      string `json:"type,omitempty" toml:"type"`
}

// Picker is the column chooser state. Options are every column the user may
// pick from, Selected the field names currently shown.
type Picker struct {
	Options  []Column
	Selected []string
	// Min and Max bound len(Selected). Zero means unbounded.
	Min int
	Max int
}

// NewPicker creates a picker that shows every option.
func NewPicker(options []Column) *Picker {
	selected := make([]string, len(options))
	for i, c := range options {
		selected[i] = c.FieldName
	}
	return &Picker{Options: options, Selected: selected}
}

// Validate checks the selection against the options and the min/max bounds.
func (p *Picker) Validate() schema.ValidationResult {
	var issues []schema.Issue

	known := make(map[string]struct{}, len(p.Options))
	for i, c := range p.Options {
		if c.FieldName == "" {
			issues = append(issues, schema.Issue{
				Code:     "EMPTY_FIELD_NAME",
				Message:  "column has no field name",
				Path:     fmt.Sprintf("options[%d]", i),
				Severity: "error",
			})
			continue
		}
		if _, dup := known[c.FieldName]; dup {
			issues = append(issues, schema.Issue{
				Code:     "DUPLICATE_COLUMN",
				Message:  fmt.Sprintf("column %q is listed more than once", c.FieldName),
				Path:     fmt.Sprintf("options[%d]", i),
				Severity: "error",
			})
		}
		known[c.FieldName] = struct{}{}
	}

	seen := make(map[string]struct{}, len(p.Selected))
	for i, f := range p.Selected {
		if _, ok := known[f]; !ok {
			issues = append(issues, schema.Issue{
				Code:     "UNKNOWN_COLUMN",
				Message:  fmt.Sprintf("selected column %q is not an option", f),
				Path:     fmt.Sprintf("selected[%d]", i),
				Severity: "error",
			})
		}
		if _, dup := seen[f]; dup {
			issues = append(issues, schema.Issue{
				Code:     "DUPLICATE_SELECTION",
				Message:  fmt.Sprintf("column %q is selected more than once", f),
				Path:     fmt.Sprintf("selected[%d]", i),
				Severity: "warning",
			})
		}
		seen[f] = struct{}{}
	}

	if p.Min < 0 || p.Max < 0 || (p.Max > 0 && p.Min > p.Max) {
		issues = append(issues, schema.Issue{
			Code:     "INVALID_BOUNDS",
			Message:  fmt.Sprintf("invalid bounds min=%d max=%d", p.Min, p.Max),
			Severity: "error",
		})
	}
	if p.Min > 0 && len(seen) < p.Min {
		issues = append(issues, schema.Issue{
			Code:     "TOO_FEW_COLUMNS",
			Message:  fmt.Sprintf("at least %d columns must be selected, got %d", p.Min, len(seen)),
			Path:     "selected",
			Severity: "error",
		})
	}
	if p.Max > 0 && len(seen) > p.Max {
		issues = append(issues, schema.Issue{
			Code:     "TOO_MANY_COLUMNS",
			Message:  fmt.Sprintf("at most %d columns may be selected, got %d", p.Max, len(seen)),
			Path:     "selected",
			Severity: "error",
		})
	}

	valid := true
	for _, issue := range issues {
		if issue.Severity == "error" {
			valid = false
			break
		}
	}
	return schema.ValidationResult{Valid: valid, Issues: issues}
}

// Visible returns the selected columns in option order.
func (p *Picker) Visible() []Column {
	selected := make(map[string]struct{}, len(p.Selected))
	for _, f := range p.Selected {
		selected[f] = struct{}{}
	}
	out := make([]Column, 0, len(selected))
	for _, c := range p.Options {
		if _, ok := selected[c.FieldName]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Fields returns the field names of the visible columns.
func (p *Picker) Fields() []string {
	visible := p.Visible()
	out := make([]string, len(visible))
	for i, c := range visible {
		out[i] = c.FieldName
	}
	return out
}

// Project keeps only the listed fields of each record. Records are copied, and
// an empty field list returns copies of the records unchanged.
func Project(records []schema.Record, fields []string) []schema.Record {
	if len(fields) == 0 {
		return schema.CloneAll(records)
	}
	include := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		include[f] = struct{}{}
	}

	out := make([]schema.Record, len(records))
	for i, r := range records {
		row := make(schema.Record, len(include))
		for name, value := range r {
			if _, ok := include[name]; ok {
				row[name] = value
			}
		}
		out[i] = row
	}
	return out
}
