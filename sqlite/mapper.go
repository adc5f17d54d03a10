package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/asaidimu/go-tableview/core/schema"
)

// Options controls how tables are created and named.
type Options struct {
	// IfNotExists adds IF NOT EXISTS to CREATE TABLE statements.
	IfNotExists bool

	// DropIfExists drops a table before Seed recreates it, inside the seeding
	// transaction.
	DropIfExists bool

	// TablePrefix is prepended to every table name.
	TablePrefix string

	// Delimiter joins the keys of JSON objects flattened on load. Empty means
	// schema.DefaultDelimiter.
	Delimiter string
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		IfNotExists:  true,
		DropIfExists: true,
		Delimiter:    schema.DefaultDelimiter,
	}
}

// Declared column types. go-sqlite3 converts TIMESTAMP and BOOLEAN columns back
// to time.Time and bool on read; JSON columns hold nested objects.
const (
	columnText      = "TEXT"
	columnInteger   = "INTEGER"
	columnReal      = "REAL"
	columnBoolean   = "BOOLEAN"
	columnTimestamp = "TIMESTAMP"
	columnJSON      = "JSON"
)

// quoteIdentifier safely quotes an identifier, such as a table or column name.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (o *Options) tableName(base string) string {
	return o.TablePrefix + base
}

// columnType maps a record value to the declared type of its column.
func columnType(value any) string {
	switch value.(type) {
	case bool:
		return columnBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return columnInteger
	case float32, float64:
		return columnReal
	case time.Time:
		return columnTimestamp
	case map[string]any, schema.Record, []any:
		return columnJSON
	default:
		return columnText
	}
}

// inferColumns returns the union of the records' fields in sorted order with
// the type of each field's first non-nil value. Fields that are always nil are
// declared TEXT.
func inferColumns(records []schema.Record) ([]string, map[string]string) {
	types := make(map[string]string)
	for _, r := range records {
		for field, value := range r {
			if types[field] != "" {
				continue
			}
			if value == nil {
				types[field] = ""
				continue
			}
			types[field] = columnType(value)
		}
	}

	fields := make([]string, 0, len(types))
	for field, t := range types {
		if t == "" {
			types[field] = columnText
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields, types
}

// createTableSQL generates the DDL for a table holding the given columns.
func (o *Options) createTableSQL(table string, fields []string, types map[string]string) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("table %s has no columns", table)
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if o.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(quoteIdentifier(o.tableName(table)) + " (\n")

	columns := make([]string, len(fields))
	for i, field := range fields {
		columns[i] = "    " + quoteIdentifier(field) + " " + types[field]
	}
	sb.WriteString(strings.Join(columns, ",\n"))
	sb.WriteString("\n);")
	return sb.String(), nil
}

// dropTable drops a table if it exists.
func dropTable(ctx context.Context, runner dbRunner, name string) error {
	stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s;", quoteIdentifier(name))
	if _, err := runner.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	return nil
}

// tableExists checks whether a table exists.
func tableExists(ctx context.Context, runner dbRunner, name string) (bool, error) {
	var found string
	err := runner.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name = ?;", name).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
