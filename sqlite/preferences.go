package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/asaidimu/go-tableview/core/query"
	"go.uber.org/zap"
)

// PreferencesTable is the table preferences are kept in, before TablePrefix.
const PreferencesTable = "view_preferences"

// Preference is what a user chose for one list view.
type Preference struct {
	Columns   []string            `json:"columns"`
	PageSize  int                 `json:"pageSize,omitempty"`
	SortField string              `json:"sortField,omitempty"`
	SortOrder query.SortDirection `json:"sortOrder,omitempty"`
	UpdatedAt time.Time           `json:"-"`
}

// Apply copies the non-zero parts of the preference onto params.
func (p Preference) Apply(params query.ViewParameters) query.ViewParameters {
	params = params.Clone()
	if p.PageSize > 0 {
		params.PageSize = p.PageSize
	}
	if p.SortField != "" {
		params.SortField = p.SortField
	}
	if p.SortOrder.Valid() {
		params.SortOrder = p.SortOrder
	}
	return params
}

// PreferenceStore saves and loads preferences keyed by view name.
type PreferenceStore struct {
	db     *sql.DB
	logger *zap.Logger
	table  string
	now    func() time.Time
}

// NewPreferenceStore creates the preferences table if needed.
func NewPreferenceStore(ctx context.Context, db *sql.DB, logger *zap.Logger, options *Options) (*PreferenceStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultOptions()
	}
	table := options.tableName(PreferencesTable)
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    "view" TEXT PRIMARY KEY,
    "preference" JSON NOT NULL,
    "updated_at" TIMESTAMP NOT NULL
);`, quoteIdentifier(table))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return &PreferenceStore{db: db, logger: logger, table: table, now: time.Now}, nil
}

// Save stores pref for view, replacing what was saved before.
func (s *PreferenceStore) Save(ctx context.Context, view string, pref Preference) error {
	if view == "" {
		return errors.New("view name cannot be empty")
	}
	if pref.SortOrder != "" && !pref.SortOrder.Valid() {
		return fmt.Errorf("invalid sort order %q", pref.SortOrder)
	}
	payload, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("failed to serialize preference for %s: %w", view, err)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s ("view", "preference", "updated_at") VALUES (?, ?, ?)
ON CONFLICT("view") DO UPDATE SET "preference" = excluded."preference", "updated_at" = excluded."updated_at";`,
		quoteIdentifier(s.table))
	if _, err := s.db.ExecContext(ctx, stmt, view, string(payload), s.now().UTC()); err != nil {
		s.logger.Error("Failed to save preference", zap.String("view", view), zap.Error(err))
		return fmt.Errorf("failed to save preference for %s: %w", view, err)
	}
	s.logger.Debug("Saved preference", zap.String("view", view), zap.Strings("columns", pref.Columns))
	return nil
}

// Load returns the preference saved for view. The boolean is false when
// nothing has been saved yet.
func (s *PreferenceStore) Load(ctx context.Context, view string) (Preference, bool, error) {
	stmt := fmt.Sprintf(`SELECT "preference", "updated_at" FROM %s WHERE "view" = ?;`, quoteIdentifier(s.table))

	var payload string
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, stmt, view).Scan(&payload, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Preference{}, false, nil
		}
		return Preference{}, false, fmt.Errorf("failed to load preference for %s: %w", view, err)
	}

	var pref Preference
	if err := json.Unmarshal([]byte(payload), &pref); err != nil {
		return Preference{}, false, fmt.Errorf("failed to decode preference for %s: %w", view, err)
	}
	pref.UpdatedAt = updatedAt
	return pref, true, nil
}

// Delete removes the preference saved for view.
func (s *PreferenceStore) Delete(ctx context.Context, view string) error {
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE "view" = ?;`, quoteIdentifier(s.table))
	if _, err := s.db.ExecContext(ctx, stmt, view); err != nil {
		return fmt.Errorf("failed to delete preference for %s: %w", view, err)
	}
	return nil
}
