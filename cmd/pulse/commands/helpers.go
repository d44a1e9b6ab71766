package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/solvaholic/teampulse/internal/analytics"
	"github.com/solvaholic/teampulse/internal/classify"
	"github.com/solvaholic/teampulse/internal/db"
	"github.com/solvaholic/teampulse/internal/export"
	"github.com/solvaholic/teampulse/internal/normalize"
	"github.com/solvaholic/teampulse/internal/report"
)

// Dataset sources accepted by --source
const (
	sourceExport = "export"
	sourceDB     = "db"
)

// newEngine builds an analytics engine from the resolved settings.
func newEngine() (*analytics.Engine, error) {
	loc, err := settings.Location()
	if err != nil {
		return nil, err
	}
	opts := analytics.Options{
		Location:          loc,
		InteractionWindow: settings.InteractionWindow,
	}
	if settings.LexiconPath != "" {
		lex, err := classify.LoadLexicon(settings.LexiconPath)
		if err != nil {
			return nil, err
		}
		opts.Lexicon = lex
	}
	return analytics.NewEngine(opts), nil
}

// openDB opens --db, or the default database.
func openDB() (*db.DB, error) {
	path := dbPath
	if path == "" {
		path = db.DefaultDBPath()
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// openSource resolves a --source value. The returned close func is never nil.
func openSource(kind string) (report.Source, *db.DB, func(), error) {
	switch kind {
	case "", sourceExport:
		if settings.ExportPath == "" {
			return nil, nil, nil, fmt.Errorf("no export directory: pass --export or set export.path")
		}
		return export.NewReader(settings.ExportPath), nil, func() {}, nil
	case sourceDB:
		database, err := openDB()
		if err != nil {
			return nil, nil, nil, err
		}
		return db.Source{DB: database}, database, func() { database.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown source: %s (expected export or db)", kind)
	}
}

// loadDataset loads the dataset from src and logs how long it took.
func loadDataset(ctx context.Context, src report.Source) (*normalize.Dataset, error) {
	start := time.Now()
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	slog.Debug("loaded dataset",
		"users", len(ds.Users),
		"channels", len(ds.Channels),
		"messages", len(ds.Messages),
		"duration", time.Since(start))
	return ds, nil
}

// resolveWeek returns id, or the latest week with messages when id is empty.
func resolveWeek(ds *normalize.Dataset, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	weeks := report.AvailableWeeks(ds)
	if len(weeks) == 0 {
		return "", fmt.Errorf("no messages found; pass --week explicitly")
	}
	return weeks[len(weeks)-1], nil
}

// buildReport loads a source and builds one week's report.
func buildReport(ctx context.Context, kind, weekID string) (*report.Report, error) {
	src, _, closeFn, err := openSource(kind)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	engine, err := newEngine()
	if err != nil {
		return nil, err
	}
	ds, err := loadDataset(ctx, src)
	if err != nil {
		return nil, err
	}
	id, err := resolveWeek(ds, weekID)
	if err != nil {
		return nil, err
	}
	return report.Build(ds, id, engine)
}
