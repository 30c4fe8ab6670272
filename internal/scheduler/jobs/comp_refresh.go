package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/compsync/internal/pipeline"
	"github.com/wonny/compsync/pkg/logger"
)

// PipelineRunner runs one extraction pass
type PipelineRunner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// CompRefreshJob refreshes the persisted composition record on a cron schedule
// ⭐ SSOT: the periodic refresh is only scheduled through this Job
type CompRefreshJob struct {
	runner   PipelineRunner
	schedule string
	timeout  time.Duration
	logger   *logger.Logger
}

// NewCompRefreshJob creates a new refresh job.
// timeout bounds a single run; zero means no bound beyond the scheduler context.
func NewCompRefreshJob(runner PipelineRunner, schedule string, timeout time.Duration, log *logger.Logger) *CompRefreshJob {
	return &CompRefreshJob{
		runner:   runner,
		schedule: schedule,
		timeout:  timeout,
		logger:   log,
	}
}

// Name returns the job name
func (j *CompRefreshJob) Name() string {
	return "comp_refresh"
}

// Schedule returns the cron schedule (with seconds)
func (j *CompRefreshJob) Schedule() string {
	return j.schedule
}

// Run executes one pipeline pass
func (j *CompRefreshJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	result, err := j.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("refresh comp: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"path":   result.Path,
	}).Info("Comp record refreshed")

	return nil
}
