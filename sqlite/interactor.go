// Package sqlite loads list view records from, and seeds them into, a local
// SQLite database, and keeps per-view display preferences.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/asaidimu/go-tableview/core/schema"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"
)

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

// dbRunner abstracts the methods shared by *sql.DB and *sql.Tx, so the same
// code runs inside and outside a transaction.
type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Open opens the SQLite database at path. ":memory:" databases are limited to
// one connection, since every connection would otherwise see its own database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// RecordSource reads and writes list view records stored one row per record.
type RecordSource struct {
	db      *sql.DB
	logger  *zap.Logger
	options *Options
}

// NewRecordSource creates a RecordSource over db. Nil logger and options fall
// back to a no-op logger and DefaultOptions.
func NewRecordSource(db *sql.DB, logger *zap.Logger, options *Options) *RecordSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultOptions()
	}
	return &RecordSource{db: db, logger: logger, options: options}
}

// readRows converts every row into a Record. Values are typed by the declared
// column type: JSON columns are decoded and flattened under the column name,
// BOOLEAN integers become bools and byte slices become strings.
func readRows(logger *zap.Logger, delimiter string, rows *sql.Rows) ([]schema.Record, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	if delimiter == "" {
		delimiter = schema.DefaultDelimiter
	}

	results := make([]schema.Record, 0)
	for rows.Next() {
		values := make([]any, len(columnTypes))
		scanArgs := make([]any, len(columnTypes))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(schema.Record, len(columnTypes))
		for i, ct := range columnTypes {
			col := ct.Name()
			val := values[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			if val == nil {
				row[col] = nil
				continue
			}

			switch strings.ToUpper(ct.DatabaseTypeName()) {
			case columnBoolean:
				if intVal, isInt := val.(int64); isInt {
					row[col] = intVal != 0
				} else {
					row[col] = val
				}
			case columnJSON:
				s, _ := val.(string)
				var decoded any
				if err := json.Unmarshal([]byte(s), &decoded); err != nil {
					logger.Warn("Column holds invalid JSON, using raw value", zap.String("column", col), zap.Error(err))
					row[col] = val
					continue
				}
				nested, ok := decoded.(map[string]any)
				if !ok {
					row[col] = decoded
					continue
				}
				for k, v := range schema.Flatten(nested, delimiter) {
					row[col+delimiter+k] = v
				}
			default:
				row[col] = val
			}
		}
		results = append(results, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return results, nil
}

// Load reads every row of table in insertion order.
func (s *RecordSource) Load(ctx context.Context, table string) ([]schema.Record, error) {
	name := s.options.tableName(table)
	stmt := fmt.Sprintf("SELECT * FROM %s ORDER BY rowid;", quoteIdentifier(name))
	s.logger.Debug("Executing SQL SELECT", zap.String("sql", stmt))

	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		s.logger.Error("Failed to execute SELECT query", zap.Error(err), zap.String("sql", stmt))
		return nil, fmt.Errorf("failed to load records from %s: %w", name, err)
	}
	defer rows.Close()

	records, err := readRows(s.logger, s.options.Delimiter, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read records from %s: %w", name, err)
	}
	s.logger.Debug("Loaded records", zap.String("table", name), zap.Int("count", len(records)))
	return records, nil
}

// Seed creates table from the union of the records' fields and inserts every
// record, all in one transaction. Nothing is written when any step fails.
func (s *RecordSource) Seed(ctx context.Context, table string, records []schema.Record) (err error) {
	if len(records) == 0 {
		return fmt.Errorf("no records provided for table %s", table)
	}
	name := s.options.tableName(table)
	fields, types := inferColumns(records)

	ddl, err := s.options.createTableSQL(table, fields, types)
	if err != nil {
		return fmt.Errorf("failed to generate SQL for table %s: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			s.logger.Debug("Rolling back transaction", zap.String("table", name))
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if s.options.DropIfExists {
		if err = dropTable(ctx, tx, name); err != nil {
			return err
		}
	}
	if _, err = tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to execute SQL statement '%s': %w", ddl, err)
	}

	insert := insertSQL(name, fields)
	s.logger.Debug("Executing SQL INSERT", zap.String("sql", insert), zap.Int("rows", len(records)))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare INSERT: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		args, argErr := insertArgs(r, fields, types)
		if argErr != nil {
			err = fmt.Errorf("record %d: %w", i, argErr)
			return err
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed of %s: %w", name, err)
	}
	s.logger.Info("Seeded table", zap.String("table", name), zap.Int("records", len(records)), zap.Int("columns", len(fields)))
	return nil
}

// Exists reports whether table has been created.
func (s *RecordSource) Exists(ctx context.Context, table string) (bool, error) {
	return tableExists(ctx, s.db, s.options.tableName(table))
}

// Drop removes table if it exists.
func (s *RecordSource) Drop(ctx context.Context, table string) error {
	return dropTable(ctx, s.db, s.options.tableName(table))
}
