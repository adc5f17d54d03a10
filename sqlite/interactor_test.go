package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/asaidimu/go-tableview/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"name"`, quoteIdentifier("name"))
	assert.Equal(t, `"we""ird"`, quoteIdentifier(`we"ird`))
}

func TestInferColumns(t *testing.T) {
	closeAt := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	fields, types := inferColumns([]schema.Record{
		{"Id": "1", "amount": nil, "note": nil},
		{"Id": "2", "amount": 12.5, "active": true, "closeAt": closeAt, "count": 3},
		{"Id": "3", "Account": map[string]any{"Name": "Acme"}},
	})

	assert.Equal(t, []string{"Account", "Id", "active", "amount", "closeAt", "count", "note"}, fields)
	assert.Equal(t, map[string]string{
		"Account": columnJSON,
		"Id":      columnText,
		"active":  columnBoolean,
		"amount":  columnReal,
		"closeAt": columnTimestamp,
		"count":   columnInteger,
		"note":    columnText,
	}, types)
}

func TestCreateTableSQL(t *testing.T) {
	o := &Options{IfNotExists: true, TablePrefix: "lv_"}
	ddl, err := o.createTableSQL("opportunities", []string{"Id", "amount"}, map[string]string{"Id": columnText, "amount": columnReal})
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS \"lv_opportunities\" (\n    \"Id\" TEXT,\n    \"amount\" REAL\n);", ddl)

	_, err = o.createTableSQL("empty", nil, nil)
	assert.Error(t, err)
}

func TestInsertSQL(t *testing.T) {
	assert.Equal(t, `INSERT INTO "t" ("a", "b") VALUES (?, ?);`, insertSQL("t", []string{"a", "b"}))
}

func TestRecordSource_SeedAndLoad(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	src := NewRecordSource(db, zap.NewNop(), nil)

	closeAt := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	records := []schema.Record{
		{"Id": "001", "name": "Acme", "amount": 42, "price": 9.5, "active": true, "closeAt": closeAt},
		{"Id": "002", "name": "Globex", "amount": 7, "active": false, "Account": map[string]any{"Owner": map[string]any{"Name": "Ann"}}},
	}
	require.NoError(t, src.Seed(ctx, "opportunities", records))

	exists, err := src.Exists(ctx, "opportunities")
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := src.Load(ctx, "opportunities")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	first := loaded[0]
	assert.Equal(t, "001", first["Id"])
	assert.Equal(t, "Acme", first["name"])
	assert.EqualValues(t, 42, first["amount"])
	assert.Equal(t, 9.5, first["price"])
	assert.Equal(t, true, first["active"])
	loadedClose, ok := first["closeAt"].(time.Time)
	require.True(t, ok, "TIMESTAMP columns load as time.Time, got %T", first["closeAt"])
	assert.True(t, closeAt.Equal(loadedClose))
	assert.Nil(t, first["Account"])

	second := loaded[1]
	assert.Equal(t, false, second["active"])
	assert.Nil(t, second["price"])
	assert.Nil(t, second["closeAt"])
	assert.Equal(t, "Ann", second["Account.Owner.Name"], "JSON objects are flattened under the column name")
	assert.NotContains(t, second, "Account")
}

func TestRecordSource_SeedReplacesTable(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	src := NewRecordSource(db, nil, nil)

	require.NoError(t, src.Seed(ctx, "t", []schema.Record{{"Id": "1"}, {"Id": "2"}}))
	require.NoError(t, src.Seed(ctx, "t", []schema.Record{{"Id": "3", "extra": "x"}}))

	loaded, err := src.Load(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, []schema.Record{{"Id": "3", "extra": "x"}}, loaded)
}

func TestRecordSource_SeedRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	src := NewRecordSource(db, nil, &Options{IfNotExists: false})

	require.NoError(t, src.Seed(ctx, "t", []schema.Record{{"Id": "1"}}))
	// The table already exists and IF NOT EXISTS is off, so CREATE fails.
	err := src.Seed(ctx, "t", []schema.Record{{"Id": "2"}})
	require.Error(t, err)

	loaded, err := src.Load(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, []schema.Record{{"Id": "1"}}, loaded)
}

func TestRecordSource_Errors(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	src := NewRecordSource(db, nil, nil)

	assert.Error(t, src.Seed(ctx, "t", nil))

	_, err := src.Load(ctx, "missing")
	assert.Error(t, err)

	exists, err := src.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRecordSource_Prefix(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	src := NewRecordSource(db, nil, &Options{IfNotExists: true, DropIfExists: true, TablePrefix: "lv_"})

	require.NoError(t, src.Seed(ctx, "t", []schema.Record{{"Id": "1"}}))
	exists, err := tableExists(ctx, db, "lv_t")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, src.Drop(ctx, "t"))
	exists, err = src.Exists(ctx, "t")
	require.NoError(t, err)
	assert.False(t, exists)
}
