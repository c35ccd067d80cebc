package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ubike-availability/internal/api"
	"ubike-availability/internal/classify"
	"ubike-availability/internal/feed"
	"ubike-availability/internal/history"
	"ubike-availability/internal/logger"
	"ubike-availability/internal/metrics"
	"ubike-availability/internal/present"
	"ubike-availability/internal/reconcile"
	"ubike-availability/internal/registry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the station and aggregate sources and serve the query API",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("serve")
	m := metrics.New()
	loc := cfg.Location()

	// Load-time schema problems are fatal and reported once at startup.
	stations, err := registry.Load(cfg.StationsPath)
	if err != nil {
		return fmt.Errorf("load station registry: %w", err)
	}
	log.Infof("loaded %d stations from %s", stations.Len(), cfg.StationsPath)

	stats, err := history.Load(cfg.StatsSource)
	if err != nil {
		return fmt.Errorf("load historical stats: %w", err)
	}
	log.Infof("loaded aggregates for %d stations from %s", stats.Len(), cfg.StatsSource)

	adapter := feed.New(cfg.Feed.URL, cfg.Feed.Timeout(), loc, logger.New("feed"), m)
	reconciler := reconcile.New(stations, stats, adapter, loc, logger.New("reconcile"), m)
	classifier := classify.New(stats)
	formatter := present.NewFormatter(cfg.Locale)

	apiServer := api.NewServer(stations, reconciler, classifier, formatter, m, logger.New("api"), cfg.DefaultHour)
	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: apiServer.Router(),
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	// Periodic explicit reload of the historical aggregates, if enabled.
	// The table is never mutated in place; Reload swaps a fresh copy.
	if cfg.ReloadIntervalMinutes > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(time.Duration(cfg.ReloadIntervalMinutes) * time.Minute)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					if err := stats.Reload(cfg.StatsSource); err != nil {
						log.Errorf("failed to reload historical stats: %v", err)
					} else {
						log.Infof("historical stats reloaded")
					}
				case <-done:
					return
				}
			}
		}()
	}

	serverErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("server listening on %s", cfg.Listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		close(done)
		wg.Wait()
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}
	log.Infof("shutting down server")

	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	wg.Wait()
	log.Infof("server exited properly")
	return nil
}
