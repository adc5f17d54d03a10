package sqlite

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/asaidimu/go-tableview/core/schema"
)

// insertSQL builds a single-row INSERT statement for the given columns. The
// statement is prepared once per seed and executed for each record.
func insertSQL(table string, fields []string) string {
	quoted := make([]string, len(fields))
	placeholders := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = quoteIdentifier(field)
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		quoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

// insertArgs returns the values of r in column order, prepared for storage.
func insertArgs(r schema.Record, fields []string, types map[string]string) ([]any, error) {
	args := make([]any, len(fields))
	for i, field := range fields {
		value, err := prepareValueForQuery(field, types[field], r[field])
		if err != nil {
			return nil, err
		}
		args[i] = value
	}
	return args, nil
}

// prepareValueForQuery converts a record value into what the column declared
// as columnType stores.
func prepareValueForQuery(field, columnType string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch columnType {
	case columnBoolean:
		if b, ok := value.(bool); ok {
			if b {
				return 1, nil
			}
			return 0, nil
		}
		return value, nil

	case columnTimestamp:
		if t, ok := value.(time.Time); ok {
			return t.UTC(), nil
		}
		return value, nil

	case columnJSON:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize field '%s' to JSON: %w", field, err)
		}
		return string(jsonBytes), nil

	case columnText:
		switch v := value.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		case fmt.Stringer:
			return v.String(), nil
		default:
			return fmt.Sprintf("%v", value), nil
		}

	default:
		return value, nil
	}
}
