package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/asaidimu/go-tableview/core/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceStore(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store, err := NewPreferenceStore(ctx, db, nil, nil)
	require.NoError(t, err)

	fixed := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	_, found, err := store.Load(ctx, "opportunities")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, "opportunities", Preference{
		Columns:   []string{"name", "amount"},
		PageSize:  25,
		SortField: "amount",
		SortOrder: query.SortDirectionDesc,
	}))

	pref, found, err := store.Load(ctx, "opportunities")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"name", "amount"}, pref.Columns)
	assert.Equal(t, 25, pref.PageSize)
	assert.Equal(t, query.SortDirectionDesc, pref.SortOrder)
	assert.True(t, fixed.Equal(pref.UpdatedAt))

	// Saving again replaces the row.
	require.NoError(t, store.Save(ctx, "opportunities", Preference{Columns: []string{"phone"}}))
	pref, found, err = store.Load(ctx, "opportunities")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"phone"}, pref.Columns)
	assert.Zero(t, pref.PageSize)

	var rows int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "view_preferences"`).Scan(&rows))
	assert.Equal(t, 1, rows)

	require.NoError(t, store.Delete(ctx, "opportunities"))
	_, found, err = store.Load(ctx, "opportunities")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPreferenceStore_Validation(t *testing.T) {
	ctx := context.Background()
	store, err := NewPreferenceStore(ctx, openTestDB(t), nil, nil)
	require.NoError(t, err)

	assert.Error(t, store.Save(ctx, "", Preference{}))
	assert.Error(t, store.Save(ctx, "v", Preference{SortOrder: "sideways"}))
}

func TestPreference_Apply(t *testing.T) {
	base := query.DefaultParameters()

	applied := Preference{PageSize: 10, SortField: "name", SortOrder: query.SortDirectionDesc}.Apply(base)
	assert.Equal(t, 10, applied.PageSize)
	assert.Equal(t, "name", applied.SortField)
	assert.Equal(t, query.SortDirectionDesc, applied.SortOrder)

	assert.Equal(t, base, Preference{}.Apply(base))
}
