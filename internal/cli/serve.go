package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aevon-lab/asc-analytics/internal/aggregation"
	"github.com/aevon-lab/asc-analytics/internal/core/storage/postgres"
	"github.com/aevon-lab/asc-analytics/internal/projection"
	"github.com/aevon-lab/asc-analytics/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query API and run scheduled extractions",
	Long: `Serve GET /v1/metrics/:app_id, /health and /metrics.

When extraction.schedule is set (e.g. "6h"), an extraction runs at startup and on
every tick, writing to the record store. database.enabled is required.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled {
		return fmt.Errorf("serve requires database.enabled")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	store := postgres.NewMetricsAdapter(db)

	srv := server.New(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port), store, cfg.Server.Mode)
	projection.NewService(store).RegisterRoutes(srv.Engine)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if interval := cfg.Extraction.ScheduleInterval(); interval > 0 {
		extractor, err := newExtractor(cfg, store)
		if err != nil {
			return err
		}
		scheduler := aggregation.NewScheduler(interval, extractor, windowFunc(cfg.Extraction))
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("[Scheduler] Stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("[Scheduler] Periodic extraction disabled by config")
	}

	if err := srv.Run(ctx); err != nil {
		return err
	}
	slog.Info("[Server] Shutdown complete")
	return nil
}
