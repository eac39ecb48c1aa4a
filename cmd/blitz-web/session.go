package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/cozyclean/blitz/internal/energy"
	"github.com/cozyclean/blitz/internal/format"
	"github.com/cozyclean/blitz/internal/jobs"
	"github.com/cozyclean/blitz/internal/library"
	"github.com/cozyclean/blitz/internal/triage"
	"github.com/rs/zerolog/log"
)

// --- Session Job Management ---

// sessionJob wraps one triage session behind the HTTP surface. The triage
// engine is single-writer state, so every access goes through mu.
type sessionJob struct {
	mu       sync.Mutex
	id       string
	clientID string
	status   string // "loading", "ready", "error"
	dir      string
	session  *triage.Session
	gate     *energy.Gate
	errMsg   string
}

var (
	jobsMu   sync.Mutex
	sessions = make(map[string]*sessionJob)
)

func newSessionJob(dir, clientID string) *sessionJob {
	jobsMu.Lock()
	defer jobsMu.Unlock()
	j := &sessionJob{
		id:       jobs.GenerateID(jobs.PrefixSession),
		clientID: clientID,
		status:   "loading",
		dir:      dir,
	}
	sessions[j.id] = j
	return j
}

func getSessionJob(id string) *sessionJob {
	jobsMu.Lock()
	defer jobsMu.Unlock()
	return sessions[id]
}

func dropSessionJob(id string) {
	jobsMu.Lock()
	defer jobsMu.Unlock()
	delete(sessions, id)
}

// --- Session HTTP Handlers ---

// POST /api/session/start
func handleSessionStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Path     string `json:"path"`
		ClientID string `json:"clientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		httpError(w, http.StatusBadRequest, "path is required")
		return
	}
	if req.ClientID == "" {
		httpError(w, http.StatusBadRequest, "clientId is required")
		return
	}
	if containsPathTraversal(req.Path) {
		httpError(w, http.StatusBadRequest, "invalid path")
		return
	}

	absPath, err := filepath.Abs(req.Path)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(absPath)
	if err != nil {
		httpError(w, http.StatusNotFound, "path not found")
		return
	}
	if !info.IsDir() {
		httpError(w, http.StatusBadRequest, "path is not a directory")
		return
	}

	job := newSessionJob(absPath, req.ClientID)

	go loadSession(job)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"id": job.id,
	})
}

// Routes under /api/session/{id}/...
func handleSessionRoutes(w http.ResponseWriter, r *http.Request) {
	jobID, action, ok := jobs.ParseRoute(r.URL.Path, "/api/session/", jobs.PrefixSession)
	if !ok {
		httpError(w, http.StatusNotFound, "not found")
		return
	}

	job := getSessionJob(jobID)
	if job == nil {
		httpError(w, http.StatusNotFound, "session not found")
		return
	}

	// An unowned session answers like a missing one so IDs cannot be probed
	// from another browser tab.
	if !jobs.CheckOwnership(r, job.clientID) {
		httpError(w, http.StatusNotFound, "session not found")
		return
	}

	switch action {
	case "state":
		handleSessionState(w, r, job)
	case "decide":
		handleSessionDecide(w, r, job)
	case "undo":
		handleSessionUndo(w, r, job)
	case "summary":
		handleSessionSummary(w, r, job)
	case "confirm":
		handleSessionConfirm(w, r, job)
	case "discard":
		handleSessionDiscard(w, r, job)
	case "thumbnail":
		handleSessionThumbnail(w, r, job)
	default:
		httpError(w, http.StatusNotFound, "not found")
	}
}

// GET /api/session/{id}/state
func handleSessionState(w http.ResponseWriter, r *http.Request, job *sessionJob) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	respondJSON(w, http.StatusOK, statePayload(job))
}

// POST /api/session/{id}/decide
func handleSessionDecide(w http.ResponseWriter, r *http.Request, job *sessionJob) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		ItemID    string `json:"itemId"`
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job.mu.Lock()
	defer job.mu.Unlock()

	if job.status != "ready" {
		httpError(w, http.StatusConflict, "session not ready")
		return
	}

	var err error
	switch req.Direction {
	case "left":
		err = job.session.DecideLeft(req.ItemID)
	case "right":
		err = job.session.DecideRight(req.ItemID)
	case "up":
		err = job.session.DecideUp(req.ItemID)
	case "down":
		err = job.session.DecideDown(req.ItemID)
	default:
		httpError(w, http.StatusBadRequest, "direction must be left, right, up, or down")
		return
	}
	if err != nil {
		respondDecisionError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, statePayload(job))
}

// POST /api/session/{id}/undo
func handleSessionUndo(w http.ResponseWriter, r *http.Request, job *sessionJob) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	job.mu.Lock()
	defer job.mu.Unlock()

	if job.status != "ready" {
		httpError(w, http.StatusConflict, "session not ready")
		return
	}
	if err := job.session.Undo(); err != nil {
		respondDecisionError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, statePayload(job))
}

// GET /api/session/{id}/summary
func handleSessionSummary(w http.ResponseWriter, r *http.Request, job *sessionJob) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	job.mu.Lock()
	defer job.mu.Unlock()

	if job.status != "ready" {
		httpError(w, http.StatusConflict, "session not ready")
		return
	}

	respondJSON(w, http.StatusOK, summaryPayload(job.session.Summary()))
}

// POST /api/session/{id}/confirm
//
// Commits a finished session: every group the session marked deleted is
// moved into the trash folder under the scanned directory. Only files the
// session itself resolved are touched; the request carries no paths.
func handleSessionConfirm(w http.ResponseWriter, r *http.Request, job *sessionJob) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	job.mu.Lock()
	if job.status != "ready" {
		job.mu.Unlock()
		httpError(w, http.StatusConflict, "session not ready")
		return
	}
	outcome, ok := job.session.Outcome()
	if !ok {
		job.mu.Unlock()
		httpError(w, http.StatusConflict, "session not finished")
		return
	}

	// Resolve every member of every deleted group while still holding the
	// lock; the file moves below touch only this snapshot.
	var doomed []triage.CaptureItem
	for _, id := range outcome.Deleted {
		if g, ok := job.session.GroupOf(id); ok {
			doomed = append(doomed, g.Items()...)
		}
	}
	dir := job.dir
	job.mu.Unlock()

	var (
		trashed        int
		errMsgs        = make([]string, 0)
		reclaimedBytes int64
	)
	for _, it := range doomed {
		dest, err := library.MoveToTrash(dir, it.Preview)
		if err != nil {
			errMsgs = append(errMsgs, fmt.Sprintf("failed to trash %s: %v", filepath.Base(it.Preview), err))
			continue
		}
		trashed++
		reclaimedBytes += it.SizeBytes
		log.Info().Str("path", it.Preview).Str("trash", dest).Msg("Trashed file")
	}

	dropSessionJob(job.id)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trashed":        trashed,
		"errors":         errMsgs,
		"reclaimedBytes": reclaimedBytes,
		"reclaimed":      format.Bytes(reclaimedBytes),
		"trashDir":       filepath.Join(dir, library.TrashDirName),
		"kept":           len(outcome.Kept),
		"favorited":      len(outcome.Favorited),
	})
}

// POST /api/session/{id}/discard
func handleSessionDiscard(w http.ResponseWriter, r *http.Request, job *sessionJob) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	job.mu.Lock()
	if job.session != nil {
		// A finished session rejects Discard; dropping the job below is
		// all that abandonment means for either case.
		if err := job.session.Discard(); err != nil && !errors.Is(err, triage.ErrInvalidTransition) {
			job.mu.Unlock()
			httpError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	job.mu.Unlock()

	dropSessionJob(job.id)
	log.Info().Str("session", job.id).Msg("Session discarded")

	respondJSON(w, http.StatusOK, map[string]bool{"discarded": true})
}

// GET /api/session/{id}/thumbnail?item=...
//
// Thumbnails are only served for items the session scanned, so arbitrary
// disk paths are never reachable through this endpoint.
func handleSessionThumbnail(w http.ResponseWriter, r *http.Request, job *sessionJob) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	itemID := r.URL.Query().Get("item")
	if itemID == "" {
		httpError(w, http.StatusBadRequest, "item is required")
		return
	}

	job.mu.Lock()
	if job.status != "ready" {
		job.mu.Unlock()
		httpError(w, http.StatusConflict, "session not ready")
		return
	}
	it, ok := job.session.Item(itemID)
	job.mu.Unlock()
	if !ok {
		httpError(w, http.StatusNotFound, "item not found")
		return
	}

	data, mime, err := library.Thumbnail(it.Preview, webThumbnailMaxDimension)
	if err != nil {
		log.Warn().Err(err).Str("path", it.Preview).Msg("Failed to generate thumbnail")
		httpError(w, http.StatusInternalServerError, "thumbnail generation failed")
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// webThumbnailMaxDimension keeps grid thumbnails light; the full-size
// render never leaves disk.
const webThumbnailMaxDimension = 400

func respondDecisionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, triage.ErrQuotaExhausted):
		httpError(w, http.StatusPaymentRequired, "out of energy")
	case errors.Is(err, triage.ErrFavoritesFull):
		httpError(w, http.StatusConflict, "favorites full")
	case errors.Is(err, triage.ErrNothingToUndo):
		httpError(w, http.StatusConflict, "nothing to undo")
	case errors.Is(err, triage.ErrInvalidTransition):
		httpError(w, http.StatusConflict, err.Error())
	default:
		httpError(w, http.StatusInternalServerError, err.Error())
	}
}

// --- Payloads ---

type memberPayload struct {
	ID           string `json:"id"`
	TimestampMs  int64  `json:"timestampMs"`
	SizeBytes    int64  `json:"sizeBytes"`
	Filename     string `json:"filename"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type groupPayload struct {
	Items     []memberPayload `json:"items"`
	BestIndex int             `json:"bestIndex"`
	IsBurst   bool            `json:"isBurst"`
	SizeBytes int64           `json:"sizeBytes"`
}

func memberPayloadOf(job *sessionJob, it triage.CaptureItem) memberPayload {
	return memberPayload{
		ID:          it.ID,
		TimestampMs: it.TimestampMs,
		SizeBytes:   it.SizeBytes,
		Filename:    filepath.Base(it.Preview),
		ThumbnailURL: fmt.Sprintf("/api/session/%s/thumbnail?item=%s&clientId=%s",
			job.id, url.QueryEscape(it.ID), url.QueryEscape(job.clientID)),
	}
}

func groupPayloadOf(job *sessionJob, g triage.Group) groupPayload {
	items := make([]memberPayload, 0, g.Len())
	for _, it := range g.Items() {
		items = append(items, memberPayloadOf(job, it))
	}
	return groupPayload{
		Items:     items,
		BestIndex: g.BestIndex(),
		IsBurst:   g.IsBurst(),
		SizeBytes: g.SizeBytes(),
	}
}

func summaryPayload(sum triage.Summary) map[string]interface{} {
	return map[string]interface{}{
		"groups":       sum.Groups,
		"decided":      sum.Decided,
		"kept":         sum.Kept,
		"deleted":      sum.Deleted,
		"favorited":    sum.Favorited,
		"deferred":     sum.Deferred,
		"deletedBytes": sum.DeletedBytes,
		"reclaimable":  format.Bytes(sum.DeletedBytes),
	}
}

// statePayload is everything the frontend needs to render; callers hold
// job.mu.
func statePayload(job *sessionJob) map[string]interface{} {
	resp := map[string]interface{}{
		"id":     job.id,
		"status": job.status,
	}
	if job.errMsg != "" {
		resp["error"] = job.errMsg
	}
	if job.status != "ready" {
		return resp
	}

	s := job.session
	resp["phase"] = s.Phase().String()
	resp["canUndo"] = s.CanUndo()
	resp["energy"] = job.gate.Remaining()
	resp["favoritesCap"] = s.FavoritesCap()
	resp["favoritesUsed"] = len(s.Favorited())
	resp["cursor"] = s.Cursor()
	resp["groupCount"] = len(s.Groups())
	resp["summary"] = summaryPayload(s.Summary())

	switch s.Phase() {
	case triage.PhaseActive:
		if g, ok := s.Current(); ok {
			resp["group"] = groupPayloadOf(job, g)
		}
	case triage.PhaseReviewingDeferred:
		if it, ok := s.CurrentReview(); ok {
			resp["review"] = memberPayloadOf(job, it)
			resp["reviewCursor"] = s.ReviewCursor()
			resp["deferredCount"] = len(s.Deferred())
		}
	case triage.PhaseFinished:
		if out, ok := s.Outcome(); ok {
			resp["outcome"] = map[string]interface{}{
				"kept":      out.Kept,
				"deleted":   out.Deleted,
				"favorited": out.Favorited,
			}
			groups := make([]groupPayload, 0, len(out.Deleted))
			for _, id := range out.Deleted {
				if g, ok := s.GroupOf(id); ok {
					groups = append(groups, groupPayloadOf(job, g))
				}
			}
			resp["deletedGroups"] = groups
		}
	}
	return resp
}
