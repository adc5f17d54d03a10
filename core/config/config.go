// Package config loads the list view configuration from TOML. Every setting
// has a default, so a file only needs the keys it changes.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/asaidimu/go-tableview/core/columns"
	"github.com/asaidimu/go-tableview/core/query"
	"github.com/asaidimu/go-tableview/core/selection"
	"go.uber.org/zap/zapcore"
)

// Config is the full configuration of a list view.
type Config struct {
	View      ViewConfig      `toml:"view"`
	Selection SelectionConfig `toml:"selection"`
	Columns   ColumnsConfig   `toml:"columns"`
	Storage   StorageConfig   `toml:"storage"`
	Log       LogConfig       `toml:"log"`
}

// ViewConfig holds the initial view parameters.
type ViewConfig struct {
	PageSize       int                 `toml:"page_size"`
	SortField      string              `toml:"sort_field"`
	SortOrder      query.SortDirection `toml:"sort_order"`
	SearchDebounce time.Duration       `toml:"search_debounce"`
}

type SelectionConfig struct {
	IdentityField string `toml:"identity_field"`
}

// ColumnsConfig configures the column picker. Zero Min or Max means unbounded.
type ColumnsConfig struct {
	Min      int              `toml:"min"`
	Max      int              `toml:"max"`
	Selected []string         `toml:"selected"`
	Options  []columns.Column `toml:"options"`
}

// StorageConfig locates the SQLite database and the tables used in it.
type StorageConfig struct {
	Path        string `toml:"path"`
	Table       string `toml:"table"`
	View        string `toml:"view"`
	TablePrefix string `toml:"table_prefix"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		View: ViewConfig{
			PageSize:       query.DefaultPageSize,
			SortField:      query.DefaultSortField,
			SortOrder:      query.SortDirectionAsc,
			SearchDebounce: 300 * time.Millisecond,
		},
		Selection: SelectionConfig{IdentityField: selection.DefaultIdentityField},
		Storage: StorageConfig{
			Path:  "tableview.db",
			Table: "opportunities",
			View:  "opportunities",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the TOML file at path over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return finish(cfg, md)
}

// Parse reads TOML text over the defaults.
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return finish(cfg, md)
}

func finish(cfg *Config, md toml.MetaData) (*Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.View.PageSize < 1 {
		errs = append(errs, fmt.Errorf("view.page_size must be at least 1, got %d", c.View.PageSize))
	}
	if !c.View.SortOrder.Valid() {
		errs = append(errs, fmt.Errorf("view.sort_order must be %q or %q, got %q",
			query.SortDirectionAsc, query.SortDirectionDesc, c.View.SortOrder))
	}
	if c.View.SearchDebounce < 0 {
		errs = append(errs, fmt.Errorf("view.search_debounce cannot be negative"))
	}
	if c.Storage.Table == "" {
		errs = append(errs, errors.New("storage.table cannot be empty"))
	}
	if len(c.Columns.Options) > 0 {
		result := c.Picker(nil).Validate()
		for _, issue := range result.Issues {
			if issue.Severity == "error" {
				errs = append(errs, fmt.Errorf("columns: %s", issue.Message))
			}
		}
	} else if c.Columns.Min < 0 || c.Columns.Max < 0 || (c.Columns.Max > 0 && c.Columns.Min > c.Columns.Max) {
		errs = append(errs, fmt.Errorf("columns: invalid bounds min=%d max=%d", c.Columns.Min, c.Columns.Max))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// Parameters returns the initial view parameters.
func (c *Config) Parameters() query.ViewParameters {
	p := query.DefaultParameters()
	p.PageSize = c.View.PageSize
	p.SortField = c.View.SortField
	p.SortOrder = c.View.SortOrder
	return p
}

// Picker builds the column picker. Configured options take precedence over
// fallback; without any selection every option is shown.
func (c *Config) Picker(fallback []columns.Column) *columns.Picker {
	options := c.Columns.Options
	if len(options) == 0 {
		options = fallback
	}
	p := columns.NewPicker(slices.Clone(options))
	if len(c.Columns.Selected) > 0 {
		p.Selected = slices.Clone(c.Columns.Selected)
	}
	p.Min = c.Columns.Min
	p.Max = c.Columns.Max
	return p
}

// LogLevel returns the configured log level, info when it cannot be parsed.
func (c *Config) LogLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
