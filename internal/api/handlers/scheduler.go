package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/compsync/internal/scheduler"
	"github.com/wonny/compsync/pkg/logger"
)

// JobScheduler is the part of the scheduler exposed over HTTP
type JobScheduler interface {
	GetAllJobs() []string
	GetJobStats() map[string]scheduler.JobStats
	RunJob(jobName string) error
}

// SchedulerHandler exposes job status and manual triggers
type SchedulerHandler struct {
	scheduler JobScheduler
	logger    *logger.Logger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(s JobScheduler, log *logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler: s,
		logger:    log,
	}
}

// GetStatus returns statistics for every job
// GET /api/scheduler/status
func (h *SchedulerHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": h.scheduler.GetJobStats(),
	})
}

// RunJob runs a job immediately and waits for it
// POST /api/scheduler/jobs/{name}/run
func (h *SchedulerHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	known := false
	for _, job := range h.scheduler.GetAllJobs() {
		if job == name {
			known = true
			break
		}
	}
	if !known {
		respondError(w, http.StatusNotFound, "Unknown job: "+name)
		return
	}

	if err := h.scheduler.RunJob(name); err != nil {
		if errors.Is(err, scheduler.ErrJobRunning) {
			respondError(w, http.StatusConflict, "Job is already running")
			return
		}
		h.logger.WithError(err).WithField("job", name).Warn("Manual job run failed")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"job":    name,
	})
}
