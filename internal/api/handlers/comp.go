package handlers

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/wonny/compsync/internal/contracts"
	"github.com/wonny/compsync/internal/store"
	"github.com/wonny/compsync/pkg/logger"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// RecordLoader reads a persisted record from disk
type RecordLoader interface {
	Load(path string) (*contracts.NormalizedRecord, error)
}

// SnapshotHistory lists stored snapshots, newest first
type SnapshotHistory interface {
	History(ctx context.Context, compID string, limit int) ([]store.Snapshot, error)
}

// RecordCache returns the last record published by a sink
type RecordCache interface {
	Latest(ctx context.Context, compID string) (*contracts.NormalizedRecord, bool, error)
}

// CompHandler serves the persisted composition record
// ⭐ SSOT: the record is read from the file written by the pipeline, never recomputed here
type CompHandler struct {
	loader  RecordLoader
	path    string
	compID  string
	history SnapshotHistory // nil when DATABASE_URL is unset
	cache   RecordCache     // nil when REDIS_ENABLED=false
	logger  *logger.Logger
}

// NewCompHandler creates a new comp handler.
// path is the file the pipeline writes; history may be nil.
func NewCompHandler(loader RecordLoader, path, compID string, history SnapshotHistory, log *logger.Logger) *CompHandler {
	return &CompHandler{
		loader:  loader,
		path:    path,
		compID:  compID,
		history: history,
		logger:  log,
	}
}

// WithCache serves the Redis copy of the record while no file exists yet
func (h *CompHandler) WithCache(cache RecordCache) *CompHandler {
	h.cache = cache
	return h
}

// GetComp returns the latest persisted record
// GET /api/comp
func (h *CompHandler) GetComp(w http.ResponseWriter, r *http.Request) {
	record, err := h.loader.Load(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if cached := h.cached(r.Context()); cached != nil {
				respondJSON(w, http.StatusOK, cached)
				return
			}
			respondError(w, http.StatusNotFound, "No comp record has been extracted yet")
			return
		}
		h.logger.WithError(err).WithField("path", h.path).Error("Failed to load comp record")
		respondError(w, http.StatusInternalServerError, "Failed to load comp record")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

func (h *CompHandler) cached(ctx context.Context) *contracts.NormalizedRecord {
	if h.cache == nil {
		return nil
	}

	record, found, err := h.cache.Latest(ctx, h.compID)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read cached comp record")
		return nil
	}
	if !found {
		return nil
	}
	return record
}

// GetHistory returns stored snapshots of the record
// GET /api/comp/history?limit=20
func (h *CompHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusNotFound, "Snapshot history is disabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' (expected a positive integer)")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	snapshots, err := h.history.History(r.Context(), h.compID, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get snapshot history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve snapshot history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"comp_id":   h.compID,
		"count":     len(snapshots),
		"snapshots": snapshots,
	})
}
