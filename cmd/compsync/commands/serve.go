package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/compsync/internal/api"
	"github.com/wonny/compsync/internal/api/handlers"
	"github.com/wonny/compsync/internal/scheduler"
	"github.com/wonny/compsync/internal/scheduler/jobs"
	"github.com/wonny/compsync/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Refresh the record on a schedule and serve it over HTTP",
	Long: `Starts the refresh scheduler and the read-only API server.

Endpoints:
  GET  /health                          - Health check (with Postgres/Redis status)
  GET  /api/comp                        - Latest persisted record (Redis copy until the first file exists)
  GET  /api/comp/history                - Snapshot history (needs DATABASE_URL)
  GET  /api/scheduler/status            - Job statistics
  POST /api/scheduler/jobs/{name}/run   - Run a job now
  GET  /metrics                         - Prometheus metrics

Example:
  go run ./cmd/compsync serve
  go run ./cmd/compsync serve --port 8089 --cron "0 */30 * * * *"`,
	RunE: runServe,
}

var (
	servePort       string
	serveCron       string
	serveRunOnStart bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (overrides PORT)")
	serveCmd.Flags().StringVar(&serveCron, "cron", "", "refresh schedule with seconds field (overrides REFRESH_CRON)")
	serveCmd.Flags().BoolVar(&serveRunOnStart, "run-on-start", true, "refresh once before the first scheduled tick")
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if servePort != "" {
		cfg.Port = servePort
	}
	if serveCron != "" {
		cfg.RefreshCron = serveCron
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port":    cfg.Port,
		"env":     cfg.Env,
		"comp_id": cfg.Strategy.CompID,
		"cron":    cfg.RefreshCron,
	}).Info("Initializing server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire the pipeline (no console summary in server mode)
	c := buildComponents(ctx, cfg, log, nil, true)
	defer c.Close()

	// 4. Scheduler
	sched := scheduler.New(log)
	refresh := jobs.NewCompRefreshJob(c.orchestrator, cfg.RefreshCron, cfg.MetaTFT.Timeout*2, log)
	if err := sched.AddJob(refresh); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}

	// 5. Router and server
	// Only connected stores are handed to the handlers
	var (
		history   handlers.SnapshotHistory
		dbCheck   handlers.DatabaseChecker
		redisPing handlers.Pinger
	)
	if c.snapshots != nil {
		history = c.snapshots
	}
	if c.db != nil {
		dbCheck = c.db
	}
	if c.redis != nil {
		redisPing = c.redis
	}

	compHandler := handlers.NewCompHandler(c.files, c.recordPath, cfg.Strategy.CompID, history, log)
	if c.publisher != nil {
		compHandler.WithCache(c.publisher)
	}

	h := api.Handlers{
		Health:    handlers.NewHealthHandler(dbCheck, redisPing, log),
		Comp:      compHandler,
		Scheduler: handlers.NewSchedulerHandler(sched, log),
	}
	if c.metrics.Enabled() {
		h.Metrics = c.metrics.Handler()
	}

	server := api.New(cfg, log, api.NewRouter(h, log))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	sched.Start()

	if serveRunOnStart {
		go runInitialRefresh(sched, refresh.Name(), log)
	}

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", cfg.Port))
	PrintInfo(fmt.Sprintf("Refreshing %s (%s) on %q", cfg.Strategy.Name, cfg.Strategy.CompID, cfg.RefreshCron))
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a server failure
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			sched.Stop()
			return err
		}
	}

	log.Info("Shutting down server...")
	sched.Stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

func runInitialRefresh(sched *scheduler.Scheduler, jobName string, log *logger.Logger) {
	if err := sched.RunJob(jobName); err != nil {
		log.WithError(err).Warn("Initial refresh failed, waiting for the next scheduled run")
	}
}
