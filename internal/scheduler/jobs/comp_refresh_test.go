package jobs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/compsync/internal/contracts"
	"github.com/wonny/compsync/internal/pipeline"
	"github.com/wonny/compsync/pkg/config"
	"github.com/wonny/compsync/pkg/logger"
)

type stubRunner struct {
	err      error
	deadline bool
}

func (r *stubRunner) Run(ctx context.Context) (*pipeline.Result, error) {
	_, r.deadline = ctx.Deadline()
	if r.err != nil {
		return nil, r.err
	}
	return &pipeline.Result{RunID: "run-1", Path: "data/comp_config.json"}, nil
}

func testLogger() *logger.Logger {
	cfg := &config.Config{Env: "development", LogLevel: "error", LogFormat: "json"}
	return logger.NewWithWriter(cfg, io.Discard)
}

func TestCompRefreshJob(t *testing.T) {
	runner := &stubRunner{}
	job := NewCompRefreshJob(runner, "0 0 */6 * * *", time.Minute, testLogger())

	assert.Equal(t, "comp_refresh", job.Name())
	assert.Equal(t, "0 0 */6 * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.True(t, runner.deadline, "each run is bounded by the timeout")
}

func TestCompRefreshJob_NoTimeout(t *testing.T) {
	runner := &stubRunner{}
	job := NewCompRefreshJob(runner, "@hourly", 0, testLogger())

	require.NoError(t, job.Run(context.Background()))
	assert.False(t, runner.deadline)
}

func TestCompRefreshJob_PropagatesFailure(t *testing.T) {
	failure := contracts.NewFailure("fetch", contracts.KindHTTP, "HTTP 503", nil)
	job := NewCompRefreshJob(&stubRunner{err: failure}, "@hourly", 0, testLogger())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrHTTPStatus)
	assert.False(t, errors.Is(err, contracts.ErrNotFound))
}
