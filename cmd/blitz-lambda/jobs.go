package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/jobs"
	"github.com/cozyclean/blitz/internal/metrics"
	"github.com/cozyclean/blitz/internal/store"
)

// Request size caps for job dispatch. Exports are bounded by what a
// session can realistically finalize; best-shot groups by what the model
// call can carry.
const (
	maxExportKeys     = 500
	maxPosterKeys     = 100
	maxBestShotGroups = 50
	maxGroupMembers   = 20
)

// POST /api/v1/export
// Body: {"keys": ["<uid>/<photo>.jpg", ...], "label": "Summer"}
func handleExportStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uid := uidFrom(r)

	var req struct {
		Keys  []string `json:"keys"`
		Label string   `json:"label,omitempty"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Keys) == 0 {
		httpError(w, http.StatusBadRequest, "keys are required")
		return
	}
	if len(req.Keys) > maxExportKeys {
		httpError(w, http.StatusBadRequest, fmt.Sprintf("too many keys: max %d per export", maxExportKeys))
		return
	}
	for _, key := range req.Keys {
		if err := validateOwnedKey(uid, key); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	startJob(w, r, uid, jobs.TypeExport, jobs.PrefixExport, map[string]interface{}{
		"keys":  req.Keys,
		"label": req.Label,
	})
}

// POST /api/v1/poster
// Body: {"keys": [...], "columns": 3}
func handlePosterStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uid := uidFrom(r)

	var req struct {
		Keys    []string `json:"keys"`
		Columns int      `json:"columns,omitempty"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Keys) == 0 {
		httpError(w, http.StatusBadRequest, "keys are required")
		return
	}
	if len(req.Keys) > maxPosterKeys {
		httpError(w, http.StatusBadRequest, fmt.Sprintf("too many keys: max %d per poster", maxPosterKeys))
		return
	}
	if req.Columns < 0 || req.Columns > 10 {
		httpError(w, http.StatusBadRequest, "columns must be between 0 and 10")
		return
	}
	for _, key := range req.Keys {
		if err := validateOwnedKey(uid, key); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	startJob(w, r, uid, jobs.TypePoster, jobs.PrefixPoster, map[string]interface{}{
		"keys":    req.Keys,
		"columns": req.Columns,
	})
}

// POST /api/v1/bestshot
// Body: {"groups": [["<uid>/a.jpg", "<uid>/b.jpg"], ...]}
//
// Each inner slice is one burst group; the worker judges each group
// independently.
func handleBestShotStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uid := uidFrom(r)

	var req struct {
		Groups [][]string `json:"groups"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Groups) == 0 {
		httpError(w, http.StatusBadRequest, "groups are required")
		return
	}
	if len(req.Groups) > maxBestShotGroups {
		httpError(w, http.StatusBadRequest, fmt.Sprintf("too many groups: max %d per request", maxBestShotGroups))
		return
	}
	for gi, group := range req.Groups {
		if len(group) == 0 {
			httpError(w, http.StatusBadRequest, fmt.Sprintf("group %d is empty", gi))
			return
		}
		if len(group) > maxGroupMembers {
			httpError(w, http.StatusBadRequest, fmt.Sprintf("group %d too large: max %d photos", gi, maxGroupMembers))
			return
		}
		for _, key := range group {
			if err := validateOwnedKey(uid, key); err != nil {
				httpError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
	}

	startJob(w, r, uid, jobs.TypeBestShot, jobs.PrefixBestShot, map[string]interface{}{
		"groups": req.Groups,
	})
}

// GET /api/v1/jobs/{id}
func handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uid := uidFrom(r)

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/"), "/")
	if !jobs.ValidID(id) {
		// Malformed and unknown IDs answer identically so job IDs
		// cannot be probed.
		httpError(w, http.StatusNotFound, "job not found")
		return
	}

	job, err := blitzStore.GetJob(r.Context(), uid, id)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to load job", err.Error())
		return
	}
	if job == nil {
		httpError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// startJob writes the pending record, dispatches to the worker, and
// responds 202 with the job ID for polling.
func startJob(w http.ResponseWriter, r *http.Request, uid, jobType, idPrefix string, payload map[string]interface{}) {
	jobID := jobs.GenerateID(idPrefix)
	job := &store.Job{
		ID:        jobID,
		Type:      jobType,
		Status:    store.JobPending,
		CreatedAt: time.Now().UnixMilli(),
	}

	ctx := r.Context()
	if err := blitzStore.PutJob(ctx, uid, job); err != nil {
		httpError(w, http.StatusInternalServerError, "failed to create job", err.Error())
		return
	}

	event := map[string]interface{}{
		"type":  jobType,
		"uid":   uid,
		"jobId": jobID,
	}
	for k, v := range payload {
		event[k] = v
	}

	if err := dispatchJob(ctx, event); err != nil {
		job.Status = store.JobError
		job.Error = "dispatch failed"
		if perr := blitzStore.PutJob(ctx, uid, job); perr != nil {
			log.Warn().Err(perr).Str("jobId", jobID).Msg("Failed to record dispatch failure")
		}
		httpError(w, http.StatusInternalServerError, "failed to start job", err.Error())
		return
	}

	metrics.New("CozyClean").
		Dimension("JobType", jobType).
		Count("JobsDispatched").
		Property("jobId", jobID).
		Property("uid", uid).
		Flush()

	log.Info().Str("uid", uid).Str("jobId", jobID).Str("type", jobType).Msg("Job dispatched")

	respondJSON(w, http.StatusAccepted, map[string]string{
		"jobId":  jobID,
		"status": store.JobPending,
	})
}
