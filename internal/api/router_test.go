package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/compsync/internal/api/handlers"
	"github.com/wonny/compsync/internal/contracts"
	"github.com/wonny/compsync/internal/scheduler"
	"github.com/wonny/compsync/internal/store"
	"github.com/wonny/compsync/pkg/config"
	"github.com/wonny/compsync/pkg/database"
	"github.com/wonny/compsync/pkg/logger"
	"github.com/wonny/compsync/pkg/metrics"
)

func testLogger() *logger.Logger {
	cfg := &config.Config{Env: "development", LogLevel: "error", LogFormat: "json"}
	return logger.NewWithWriter(cfg, io.Discard)
}

func sampleRecord() *contracts.NormalizedRecord {
	return &contracts.NormalizedRecord{
		CompID:    contracts.NewClusterID("381014"),
		CompName:  "Piltover T-Hex",
		Units:     []string{"THex", "Jayce"},
		MainCarry: "THex",
		Performance: contracts.Performance{
			AvgPlacement:      4.5,
			SampleSize:        12000,
			EstimatedTop4Rate: 50,
		},
		ItemBuilds: map[string]contracts.ItemBuild{
			"THex": {Items: []string{"InfinityEdge"}, AvgPlacement: 4.1, PlaceChange: -0.4, SampleSize: 3000},
		},
		StrategyNotes: contracts.StrategyNotes{Difficulty: "Unknown", Levelling: "Standard"},
	}
}

type fakeScheduler struct {
	jobs  []string
	stats map[string]scheduler.JobStats
	err   error
	runs  int
}

func (f *fakeScheduler) GetAllJobs() []string                       { return f.jobs }
func (f *fakeScheduler) GetJobStats() map[string]scheduler.JobStats { return f.stats }
func (f *fakeScheduler) RunJob(string) error {
	f.runs++
	return f.err
}

type fakeHistory struct {
	snapshots []store.Snapshot
	err       error
	limit     int
}

func (f *fakeHistory) History(_ context.Context, _ string, limit int) ([]store.Snapshot, error) {
	f.limit = limit
	return f.snapshots, f.err
}

type fixture struct {
	router    http.Handler
	files     *store.FileStore
	path      string
	scheduler *fakeScheduler
	history   *fakeHistory
}

func newFixture(t *testing.T, withHistory bool) *fixture {
	t.Helper()

	log := testLogger()
	files := store.NewFileStore(t.TempDir(), log)
	path := files.PathFor(sampleRecord(), "")

	sched := &fakeScheduler{
		jobs: []string{"comp_refresh"},
		stats: map[string]scheduler.JobStats{
			"comp_refresh": {JobName: "comp_refresh", Schedule: "0 0 */6 * * *", TotalRuns: 3, SuccessCount: 2, FailureCount: 1},
		},
	}

	var (
		hist   *fakeHistory
		reader handlers.SnapshotHistory
	)
	if withHistory {
		hist = &fakeHistory{}
		reader = hist
	}

	m := metrics.NewManager()
	m.RecordSuccess("381014", 4.5, 12000)

	router := NewRouter(Handlers{
		Health:    handlers.NewHealthHandler(nil, nil, log),
		Comp:      handlers.NewCompHandler(files, path, "381014", reader, log),
		Scheduler: handlers.NewSchedulerHandler(sched, log),
		Metrics:   m.Handler(),
	}, log)

	return &fixture{router: router, files: files, path: path, scheduler: sched, history: hist}
}

func (f *fixture) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"compsync"}`, rec.Body.String())
}

type fakeDatabase struct {
	err error
}

func (f *fakeDatabase) HealthCheck(context.Context) (*database.HealthStatus, error) {
	if f.err != nil {
		return &database.HealthStatus{Healthy: false, Error: f.err.Error()}, f.err
	}
	return &database.HealthStatus{Healthy: true, MaxConns: 4, TotalConns: 1}, nil
}

type fakeRedis struct {
	err error
}

func (f *fakeRedis) Ping(context.Context) error { return f.err }

func TestHealth_WithStores(t *testing.T) {
	tests := []struct {
		name       string
		db         *fakeDatabase
		redis      *fakeRedis
		wantStatus string
		wantDB     bool
		wantRedis  bool
	}{
		{"all healthy", &fakeDatabase{}, &fakeRedis{}, "ok", true, true},
		{"database down", &fakeDatabase{err: errors.New("connection refused")}, &fakeRedis{}, "degraded", false, true},
		{"redis down", &fakeDatabase{}, &fakeRedis{err: errors.New("i/o timeout")}, "degraded", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := testLogger()
			router := NewRouter(Handlers{
				Health:    handlers.NewHealthHandler(tt.db, tt.redis, log),
				Comp:      handlers.NewCompHandler(store.NewFileStore(t.TempDir(), log), "missing.json", "381014", nil, log),
				Scheduler: handlers.NewSchedulerHandler(&fakeScheduler{}, log),
			}, log)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Status string `json:"status"`
				Checks struct {
					Database database.HealthStatus `json:"database"`
					Redis    struct {
						Healthy bool   `json:"healthy"`
						Error   string `json:"error"`
					} `json:"redis"`
				} `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantDB, body.Checks.Database.Healthy)
			assert.Equal(t, tt.wantRedis, body.Checks.Redis.Healthy)
			if !tt.wantRedis {
				assert.Equal(t, "i/o timeout", body.Checks.Redis.Error)
			}
		})
	}
}

type fakeCache struct {
	record *contracts.NormalizedRecord
	err    error
	compID string
}

func (f *fakeCache) Latest(_ context.Context, compID string) (*contracts.NormalizedRecord, bool, error) {
	f.compID = compID
	return f.record, f.record != nil, f.err
}

func TestGetComp_CacheFallback(t *testing.T) {
	newRouter := func(t *testing.T, cache *fakeCache) (http.Handler, *store.FileStore) {
		log := testLogger()
		files := store.NewFileStore(t.TempDir(), log)
		comp := handlers.NewCompHandler(files, files.PathFor(sampleRecord(), ""), "381014", nil, log).WithCache(cache)
		return NewRouter(Handlers{
			Health:    handlers.NewHealthHandler(nil, nil, log),
			Comp:      comp,
			Scheduler: handlers.NewSchedulerHandler(&fakeScheduler{}, log),
		}, log), files
	}

	get := func(router http.Handler) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/comp", nil))
		return rec
	}

	t.Run("served from cache before the first file", func(t *testing.T) {
		cached := sampleRecord()
		cached.Performance.AvgPlacement = 4.2
		cache := &fakeCache{record: cached}
		router, _ := newRouter(t, cache)

		rec := get(router)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "381014", cache.compID)

		var got contracts.NormalizedRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 4.2, got.Performance.AvgPlacement)
	})

	t.Run("file wins over cache", func(t *testing.T) {
		cached := sampleRecord()
		cached.Performance.AvgPlacement = 4.2
		router, files := newRouter(t, &fakeCache{record: cached})

		_, err := files.Save(sampleRecord(), "")
		require.NoError(t, err)

		rec := get(router)
		require.Equal(t, http.StatusOK, rec.Code)

		var got contracts.NormalizedRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 4.5, got.Performance.AvgPlacement)
	})

	t.Run("cache miss", func(t *testing.T) {
		router, _ := newRouter(t, &fakeCache{})
		assert.Equal(t, http.StatusNotFound, get(router).Code)
	})

	t.Run("cache error", func(t *testing.T) {
		router, _ := newRouter(t, &fakeCache{err: errors.New("connection reset")})
		assert.Equal(t, http.StatusNotFound, get(router).Code)
	})
}

func TestGetComp(t *testing.T) {
	f := newFixture(t, false)

	// Nothing extracted yet
	rec := f.do(http.MethodGet, "/api/comp")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := f.files.Save(sampleRecord(), "")
	require.NoError(t, err)

	rec = f.do(http.MethodGet, "/api/comp")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got contracts.NormalizedRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *sampleRecord(), got)
}

func TestGetComp_CorruptFile(t *testing.T) {
	f := newFixture(t, false)

	require.NoError(t, os.MkdirAll(filepath.Dir(f.path), 0755))
	require.NoError(t, os.WriteFile(f.path, []byte("{truncated"), 0644))

	rec := f.do(http.MethodGet, "/api/comp")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetComp_MethodNotAllowed(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodPost, "/api/comp")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetHistory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, false)
		rec := f.do(http.MethodGet, "/api/comp/history")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("default limit", func(t *testing.T) {
		f := newFixture(t, true)
		f.history.snapshots = []store.Snapshot{
			{RunID: "run-2", CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Record: *sampleRecord()},
			{RunID: "run-1", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Record: *sampleRecord()},
		}

		rec := f.do(http.MethodGet, "/api/comp/history")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 20, f.history.limit)

		var body struct {
			CompID    string           `json:"comp_id"`
			Count     int              `json:"count"`
			Snapshots []store.Snapshot `json:"snapshots"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "381014", body.CompID)
		assert.Equal(t, 2, body.Count)
		assert.Equal(t, "run-2", body.Snapshots[0].RunID)
	})

	t.Run("limit is capped", func(t *testing.T) {
		f := newFixture(t, true)
		rec := f.do(http.MethodGet, "/api/comp/history?limit=10000")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 500, f.history.limit)
	})

	t.Run("invalid limit", func(t *testing.T) {
		f := newFixture(t, true)
		for _, q := range []string{"abc", "0", "-3"} {
			rec := f.do(http.MethodGet, "/api/comp/history?limit="+q)
			assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		}
	})

	t.Run("repository error", func(t *testing.T) {
		f := newFixture(t, true)
		f.history.err = errors.New("connection reset")
		rec := f.do(http.MethodGet, "/api/comp/history")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestSchedulerStatus(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/api/scheduler/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Jobs map[string]scheduler.JobStats `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Jobs["comp_refresh"].TotalRuns)
	assert.Equal(t, "0 0 */6 * * *", body.Jobs["comp_refresh"].Schedule)
}

func TestSchedulerRunJob(t *testing.T) {
	tests := []struct {
		name     string
		job      string
		err      error
		wantCode int
		wantRuns int
	}{
		{"success", "comp_refresh", nil, http.StatusOK, 1},
		{"unknown job", "nope", nil, http.StatusNotFound, 0},
		{"already running", "comp_refresh", scheduler.ErrJobRunning, http.StatusConflict, 1},
		{"pipeline failure", "comp_refresh", errors.New("refresh comp: fetch: HTTP 503"), http.StatusBadGateway, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.scheduler.err = tt.err

			rec := f.do(http.MethodPost, "/api/scheduler/jobs/"+tt.job+"/run")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantRuns, f.scheduler.runs)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `compsync_comp_avg_placement{comp_id="381014"} 4.5`))
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/comp", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}
