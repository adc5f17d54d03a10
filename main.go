package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/asaidimu/go-tableview/core/columns"
	"github.com/asaidimu/go-tableview/core/config"
	"github.com/asaidimu/go-tableview/core/listview"
	"github.com/asaidimu/go-tableview/core/query"
	"github.com/asaidimu/go-tableview/core/schema"
	"github.com/asaidimu/go-tableview/sqlite"
	"github.com/asaidimu/go-tableview/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	count := flag.Int("records", 250, "number of sample records to seed")
	seed := flag.Int64("seed", 0, "random seed for sample records, 0 for a time-based seed")
	page := flag.Int("page", 1, "page to print")
	search := flag.String("search", "", "search term")
	sortField := flag.String("sort", "", "field to sort by")
	desc := flag.Bool("desc", false, "sort descending")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.LogLevel())
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.TimeKey = "timestamp"
	logger, err := zc.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(context.Background(), cfg, logger, options{
		count:     *count,
		seed:      *seed,
		page:      *page,
		search:    *search,
		sortField: *sortField,
		desc:      *desc,
	}); err != nil {
		logger.Fatal("List view demo failed", zap.Error(err))
	}
}

type options struct {
	count     int
	seed      int64
	page      int
	search    string
	sortField string
	desc      bool
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts options) error {
	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	storeOptions := sqlite.DefaultOptions()
	storeOptions.TablePrefix = cfg.Storage.TablePrefix

	source := sqlite.NewRecordSource(db, logger, storeOptions)
	records, err := sampleRecords(ctx, source, cfg.Storage.Table, opts)
	if err != nil {
		return err
	}

	prefs, err := sqlite.NewPreferenceStore(ctx, db, logger, storeOptions)
	if err != nil {
		return err
	}
	pref, found, err := prefs.Load(ctx, cfg.Storage.View)
	if err != nil {
		return err
	}

	params := cfg.Parameters()
	picker := cfg.Picker(utils.SampleColumns())
	if found {
		logger.Info("Using saved preference", zap.String("view", cfg.Storage.View), zap.Time("updatedAt", pref.UpdatedAt))
		params = pref.Apply(params)
		if len(pref.Columns) > 0 {
			saved := *picker
			saved.Selected = pref.Columns
			if saved.Validate().Valid {
				picker = &saved
			} else {
				logger.Warn("Ignoring saved columns that no longer fit the picker", zap.Strings("columns", pref.Columns))
			}
		}
	}
	if opts.sortField != "" {
		params.SortField = opts.sortField
		params.SortOrder = query.SortDirectionAsc
	}
	if opts.desc {
		params.SortOrder = query.SortDirectionDesc
	}
	params.SearchTerm = opts.search

	lv, err := listview.New(records, listview.Options{
		Parameters:     &params,
		IdentityField:  cfg.Selection.IdentityField,
		Columns:        picker,
		Logger:         logger,
		SearchDebounce: cfg.View.SearchDebounce,
	})
	if err != nil {
		return err
	}
	defer lv.Close()

	if _, err := lv.RegisterSubscription(listview.RegisterSubscriptionOptions{
		Event: listview.PageChanged,
		Callback: func(_ context.Context, e listview.Event) error {
			logger.Debug("Page changed", zap.Int("page", e.Page), zap.Int("pageCount", e.PageCount))
			return nil
		},
	}); err != nil {
		return err
	}

	if err := lv.GoTo(opts.page); err != nil {
		return err
	}

	printPage(os.Stdout, lv)

	current := lv.Parameters()
	return prefs.Save(ctx, cfg.Storage.View, sqlite.Preference{
		Columns:   fieldsOf(lv.VisibleColumns()),
		PageSize:  current.PageSize,
		SortField: current.SortField,
		SortOrder: current.SortOrder,
	})
}

// sampleRecords seeds the local table with sample data and reads it back, the
// way records would arrive from a real source. Without records there are no
// columns to create, so the table is dropped and the view starts empty.
func sampleRecords(ctx context.Context, source *sqlite.RecordSource, table string, opts options) ([]schema.Record, error) {
	if opts.count <= 0 {
		if err := source.Drop(ctx, table); err != nil {
			return nil, err
		}
		return []schema.Record{}, nil
	}

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if err := source.Seed(ctx, table, utils.GenerateRecords(opts.count, rand.New(rand.NewSource(seed)))); err != nil {
		return nil, fmt.Errorf("failed to seed records: %w", err)
	}
	records, err := source.Load(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return records, nil
}

func printPage(out *os.File, lv *listview.ListView) {
	visible := lv.VisibleColumns()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	labels := make([]string, len(visible))
	for i, c := range visible {
		labels[i] = c.Label
	}
	fmt.Fprintln(w, strings.Join(labels, "\t"))

	for _, row := range lv.Rows() {
		cells := make([]string, len(visible))
		for i, c := range visible {
			cells[i] = formatCell(c, row)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()

	p := lv.Parameters()
	fmt.Fprintf(out, "\nPage %d of %d (%d records, sorted by %s %s", lv.CurrentPage(), lv.PageCount(), lv.Len(), p.SortField, p.SortOrder)
	if p.SearchTerm != "" {
		fmt.Fprintf(out, ", search %q", p.SearchTerm)
	}
	fmt.Fprintln(out, ")")
}

func formatCell(c columns.Column, row schema.Record) string {
	v := row[c.FieldName]
	if t, ok := v.(time.Time); ok && c.Type == "date" {
		return t.Format(time.DateOnly)
	}
	return query.Format(v)
}

func fieldsOf(cols []columns.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.FieldName
	}
	return out
}
