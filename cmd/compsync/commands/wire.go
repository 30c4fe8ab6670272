package commands

import (
	"context"
	"io"

	"github.com/wonny/compsync/internal/comp"
	"github.com/wonny/compsync/internal/contracts"
	"github.com/wonny/compsync/internal/external/metatft"
	"github.com/wonny/compsync/internal/pipeline"
	"github.com/wonny/compsync/internal/report"
	"github.com/wonny/compsync/internal/store"
	"github.com/wonny/compsync/pkg/config"
	"github.com/wonny/compsync/pkg/database"
	"github.com/wonny/compsync/pkg/httputil"
	"github.com/wonny/compsync/pkg/logger"
	"github.com/wonny/compsync/pkg/metrics"
	"github.com/wonny/compsync/pkg/redis"
)

// components is everything a command needs once the pipeline is wired
type components struct {
	orchestrator *pipeline.Orchestrator
	files        *store.FileStore
	recordPath   string
	snapshots    *store.SnapshotRepository // nil without DATABASE_URL
	db           *database.DB              // nil without DATABASE_URL
	redis        *redis.Client             // nil when Redis is disabled or unreachable
	publisher    *store.RedisPublisher     // nil when Redis is disabled or unreachable
	metrics      *metrics.Manager

	closers []func()
}

// Close releases optional connections in reverse order
func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// buildComponents wires config → clients → stages → orchestrator.
// Redis and Postgres are optional; a connection failure disables that sink with a warning.
func buildComponents(ctx context.Context, cfg *config.Config, log *logger.Logger, summary io.Writer, useID bool) *components {
	c := &components{
		metrics: metrics.NewManager(metrics.WithMetricsEnabled(cfg.MetricsEnabled)),
		files:   store.NewFileStore(cfg.Output.Dir, log),
	}

	strategy := contracts.Strategy{
		CompID:     cfg.Strategy.CompID,
		Name:       cfg.Strategy.Name,
		MainCarry:  cfg.Strategy.MainCarry,
		UnitPrefix: cfg.Strategy.UnitPrefix,
		ItemPrefix: cfg.Strategy.ItemPrefix,
	}

	persistID := ""
	if useID {
		persistID = strategy.CompID
	}
	c.recordPath = c.files.PathFor(&contracts.NormalizedRecord{CompName: strategy.Name}, persistID)

	var sinks []contracts.RecordSink

	if cfg.Redis.Enabled {
		rc, err := redis.New(ctx, cfg)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, record publishing disabled")
		} else {
			c.closers = append(c.closers, func() { _ = rc.Close() })
			c.redis = rc
			c.publisher = store.NewRedisPublisher(redis.NewCache(rc, "compsync"), cfg.Redis.RecordTTL)
			sinks = append(sinks, c.publisher)
			log.Info("Connected to Redis")
		}
	}

	if cfg.Database.Enabled() {
		db, err := database.New(ctx, cfg)
		if err != nil {
			log.WithError(err).Warn("Database unavailable, snapshot history disabled")
		} else {
			repo := store.NewSnapshotRepository(db.Pool)
			if err := repo.EnsureSchema(ctx); err != nil {
				log.WithError(err).Warn("Failed to prepare snapshot table, snapshot history disabled")
				db.Close()
			} else {
				c.closers = append(c.closers, db.Close)
				c.db = db
				c.snapshots = repo
				sinks = append(sinks, repo)
				log.Info("Connected to database")
			}
		}
	}

	client := metatft.NewClient(httputil.New(cfg, log), log, cfg.MetaTFT.BaseURL, cfg.MetaTFT.Queue)

	var reporter contracts.RecordReporter
	if summary != nil {
		reporter = report.NewReporter(summary)
	}

	c.orchestrator = pipeline.NewOrchestrator(
		client,
		comp.NewExtractor(log),
		comp.NewTransformer(strategy, log),
		c.files,
		log,
		pipeline.Options{
			CompID:          strategy.CompID,
			UseIDInFilename: useID,
			Sinks:           sinks,
			Reporter:        reporter,
			Metrics:         c.metrics,
		},
	)

	return c
}
