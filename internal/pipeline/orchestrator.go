// Package pipeline runs fetch → extract → transform → persist → report for one composition.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/compsync/internal/comp"
	"github.com/wonny/compsync/internal/contracts"
	"github.com/wonny/compsync/pkg/logger"
	"github.com/wonny/compsync/pkg/metrics"
)

// Stage names used in logs and metrics
const (
	StageFetch     = "fetch"
	StageExtract   = "extract"
	StageTransform = "transform"
	StagePersist   = "persist"
	StagePublish   = "publish"
	StageReport    = "report"
)

// Orchestrator sequences the pipeline stages and stops at the first failure
// ⭐ SSOT: pipeline ordering lives here only
type Orchestrator struct {
	fetcher     contracts.CompFetcher
	extractor   *comp.Extractor
	transformer *comp.Transformer
	persister   contracts.RecordPersister
	reporter    contracts.RecordReporter
	sinks       []contracts.RecordSink
	metrics     *metrics.Manager
	logger      *logger.Logger

	compID    string
	persistID string
}

// Options configures an Orchestrator
type Options struct {
	// CompID is the cluster id to extract
	CompID string

	// UseIDInFilename writes <name>_<id>.json instead of the default file name
	UseIDInFilename bool

	// Sinks receive a copy of every persisted record; their errors are logged only
	Sinks []contracts.RecordSink

	// Reporter is optional; nil skips the summary
	Reporter contracts.RecordReporter

	// Metrics is optional
	Metrics *metrics.Manager
}

// Result holds the outcome of a successful run
type Result struct {
	RunID    string
	Record   *contracts.NormalizedRecord
	Path     string
	Duration time.Duration
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	fetcher contracts.CompFetcher,
	extractor *comp.Extractor,
	transformer *comp.Transformer,
	persister contracts.RecordPersister,
	log *logger.Logger,
	opts Options,
) *Orchestrator {
	o := &Orchestrator{
		fetcher:     fetcher,
		extractor:   extractor,
		transformer: transformer,
		persister:   persister,
		reporter:    opts.Reporter,
		sinks:       opts.Sinks,
		metrics:     opts.Metrics,
		logger:      log,
		compID:      opts.CompID,
	}

	if opts.UseIDInFilename {
		o.persistID = opts.CompID
	}

	if o.metrics == nil {
		o.metrics = metrics.NewManager(metrics.WithMetricsEnabled(false))
	}

	return o
}

// Run executes one pipeline pass.
// Any stage failure is returned as a *contracts.Failure and nothing is written.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	log := o.logger.WithFields(map[string]interface{}{
		"run_id":  runID,
		"comp_id": o.compID,
	})

	log.Info("Pipeline started")

	// Step 1: download all comps
	stageStart := time.Now()
	resp, err := o.fetcher.FetchComps(ctx)
	o.metrics.ObserveStage(StageFetch, time.Since(stageStart))
	if err != nil {
		return nil, o.fail(log, StageFetch, "Failed to download data", err)
	}

	// Step 2: extract our comp
	raw, err := o.extractor.Extract(resp, o.compID)
	if err != nil {
		return nil, o.fail(log, StageExtract, "Failed to extract comp data", err)
	}

	// Step 3: reshape
	stageStart = time.Now()
	record, err := o.transformer.Transform(raw)
	o.metrics.ObserveStage(StageTransform, time.Since(stageStart))
	if err != nil {
		return nil, o.fail(log, StageTransform, "Failed to parse comp data", err)
	}

	// Step 4: persist
	stageStart = time.Now()
	path, err := o.persister.Save(record, o.persistID)
	o.metrics.ObserveStage(StagePersist, time.Since(stageStart))
	if err != nil {
		return nil, o.fail(log, StagePersist, "Failed to save comp config", err)
	}

	o.publish(ctx, log, runID, record)

	// Step 5: summary
	if o.reporter != nil {
		o.reporter.Report(record)
	}

	result := &Result{
		RunID:    runID,
		Record:   record,
		Path:     path,
		Duration: time.Since(startTime),
	}

	o.metrics.RecordSuccess(record.CompID.String(), record.Performance.AvgPlacement, record.Performance.SampleSize)

	log.WithFields(map[string]interface{}{
		"path":     path,
		"duration": result.Duration,
	}).Info("Data extraction complete")

	return result, nil
}

// publish hands the record to the optional sinks; the file is already written
func (o *Orchestrator) publish(ctx context.Context, log *logger.Logger, runID string, record *contracts.NormalizedRecord) {
	for _, sink := range o.sinks {
		if err := sink.Publish(ctx, runID, record); err != nil {
			o.metrics.RecordSinkError(sink.Name())
			log.WithError(err).WithField("sink", sink.Name()).Warn("Failed to publish record")
			continue
		}
		log.WithField("sink", sink.Name()).Debug("Record published")
	}
}

func (o *Orchestrator) fail(log *logger.Logger, stage, msg string, err error) error {
	kind := "unknown"
	if f, ok := contracts.AsFailure(err); ok {
		kind = string(f.Kind)
	}

	o.metrics.RecordFailure(stage, kind)
	log.WithError(err).WithFields(map[string]interface{}{
		"stage": stage,
		"kind":  kind,
	}).Error(msg)

	return err
}
