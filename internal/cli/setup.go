package cli

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aevon-lab/asc-analytics/internal/aggregation"
	"github.com/aevon-lab/asc-analytics/internal/appstore"
	"github.com/aevon-lab/asc-analytics/internal/auth"
	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
	corecfg "github.com/aevon-lab/asc-analytics/internal/core/config"
	"github.com/aevon-lab/asc-analytics/internal/core/storage/postgres"
	"github.com/aevon-lab/asc-analytics/internal/ingest"
	"github.com/aevon-lab/asc-analytics/internal/migrations"
	"github.com/aevon-lab/asc-analytics/internal/reports"
)

// loadConfig loads configuration and installs the default logger.
func loadConfig(out io.Writer) (*corecfg.Config, error) {
	cfg, err := corecfg.Load(configPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(out, cfg.Log))
	return cfg, nil
}

func newLogger(out io.Writer, c corecfg.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Level)}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openDatabase connects and migrates the record store. It returns nil when the database is disabled.
func openDatabase(cfg *corecfg.Config) (*sql.DB, error) {
	if !cfg.Database.Enabled {
		slog.Info("[Postgres] Record store disabled by config")
		return nil, nil
	}

	db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, false)
	if err != nil {
		return nil, err
	}
	if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return db, nil
}

// newExtractor builds the provider client stack and the Extractor. store may be nil.
func newExtractor(cfg *corecfg.Config, store *postgres.MetricsAdapter, opts ...aggregation.ExtractorOption) (*aggregation.Extractor, error) {
	pem, err := cfg.AppStore.PrivateKeyPEM()
	if err != nil {
		return nil, err
	}
	if _, err := auth.ParsePrivateKey(pem); err != nil {
		return nil, err
	}
	issuer := auth.NewIssuer(cfg.AppStore.IssuerID, cfg.AppStore.KeyID, pem)

	var clientOpts []appstore.ClientOption
	if cfg.Breaker.Enabled {
		clientOpts = append(clientOpts, appstore.WithBreaker(
			appstore.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.BreakerTimeout())))
	}
	client := appstore.NewClient(cfg.AppStore.APIURL, issuer, cfg.AppStore.Timeout(), clientOpts...)

	selectors, err := coreagg.LoadSelectors(cfg.Extraction.ReportsDir)
	if err != nil {
		return nil, err
	}

	// presigned segment URLs get a bare client: no bearer token, no breaker
	segmentHTTP := &http.Client{Timeout: cfg.AppStore.Timeout()}
	newFetcher := func(dir string) aggregation.RowFetcher {
		return ingest.NewFetcher(segmentHTTP, dir)
	}

	if store != nil {
		opts = append(opts,
			aggregation.WithSink(aggregation.NewStoreSink(store)),
			aggregation.WithRunRecorder(store))
	}

	return aggregation.NewExtractor(
		aggregation.ExtractorConfig{
			AppID:       cfg.AppStore.AppID,
			ScratchRoot: cfg.Extraction.ScratchDir,
			Selectors:   selectors,
		},
		reports.NewResolver(client, cfg.Extraction.PageLimit),
		reports.NewLocator(client, cfg.Extraction.PageLimit, cfg.Extraction.MaxInstances),
		newFetcher,
		opts...,
	), nil
}

// windowFunc adapts the configured extraction window to the aggregation date window.
func windowFunc(c corecfg.ExtractionConfig) aggregation.WindowFunc {
	return func(now time.Time) (coreagg.DateWindow, error) {
		w, err := c.Window(now)
		if err != nil {
			return coreagg.DateWindow{}, err
		}
		return coreagg.NewDateWindow(w.Start, w.End)
	}
}
