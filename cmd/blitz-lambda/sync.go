package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/energy"
	"github.com/cozyclean/blitz/internal/events"
	"github.com/cozyclean/blitz/internal/format"
	"github.com/cozyclean/blitz/internal/metrics"
	"github.com/cozyclean/blitz/internal/store"
)

// maxSyncActions caps the photo actions accepted in one sync upload.
const maxSyncActions = 2000

type syncTotals struct {
	TotalSavedBytes   int64  `json:"totalSavedBytes"`
	TotalDeletedCount int64  `json:"totalDeletedCount"`
	TotalSavedDisplay string `json:"totalSavedDisplay"`
	CurrentEnergy     int64  `json:"currentEnergy"`
}

// POST /api/v1/sync/upload
// Body: {"sessionLog": {...}, "actions": [{...}]}
//
// Persists one finalized cleanup session: the session log plus its photo
// actions. Photos already finalized in an earlier session are counted as
// duplicates and skipped, so client retries and overlapping sessions
// cannot double-bill energy or inflate totals. The Aurora mirror and the
// SessionSynced event are best-effort; DynamoDB is the hot path.
func handleSyncUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uid := uidFrom(r)

	var req struct {
		SessionLog store.SessionLog    `json:"sessionLog"`
		Actions    []store.PhotoAction `json:"actions"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateSyncUpload(&req.SessionLog, req.Actions); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	user, err := blitzStore.GetUser(ctx, uid)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "sync failed", err.Error())
		return
	}
	if user == nil {
		httpError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	// A session log that already exists means this upload is a retry.
	existing, err := blitzStore.GetSessionLog(ctx, uid, req.SessionLog.SessionID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "sync failed", err.Error())
		return
	}
	if existing != nil {
		log.Info().Str("uid", uid).Str("sessionId", req.SessionLog.SessionID).Msg("Session already synced, skipping")
		respondTotals(w, ctx, uid, 0, len(req.Actions))
		return
	}

	prior, err := blitzStore.GetActions(ctx, uid)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "sync failed", err.Error())
		return
	}
	fresh, duplicates := store.SplitNewActions(prior, req.Actions)
	for i := range fresh {
		if fresh[i].SessionID == "" {
			fresh[i].SessionID = req.SessionLog.SessionID
		}
		if fresh[i].ActionTimeMs == 0 {
			fresh[i].ActionTimeMs = time.Now().UnixMilli()
		}
	}

	if len(fresh) > 0 {
		if err := blitzStore.PutActions(ctx, uid, fresh); err != nil {
			httpError(w, http.StatusInternalServerError, "sync failed", err.Error())
			return
		}
	}
	if err := blitzStore.PutSessionLog(ctx, uid, &req.SessionLog); err != nil {
		httpError(w, http.StatusInternalServerError, "sync failed", err.Error())
		return
	}

	// Energy accounting: decisions were already made on the device, so a
	// shortfall floors the balance at zero instead of rejecting the sync.
	if cost := int64(len(fresh)) * appConfig.DecisionCost; cost > 0 && !user.IsPro {
		consumeFlooring(ctx, uid, cost)
	}

	if err := blitzStore.AddTotals(ctx, uid, req.SessionLog.SavedBytes, int64(req.SessionLog.DeletedCount)); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("Failed to update lifetime totals")
	}

	mirrorToRecords(ctx, uid, &req.SessionLog, fresh)

	if err := publisher.SessionSynced(ctx, events.SessionSynced{
		UID:           uid,
		SessionID:     req.SessionLog.SessionID,
		Mode:          req.SessionLog.Mode,
		KeptCount:     req.SessionLog.KeptCount,
		DeletedCount:  req.SessionLog.DeletedCount,
		FavoriteCount: req.SessionLog.FavoriteCount,
		SavedBytes:    req.SessionLog.SavedBytes,
		DeviceID:      req.SessionLog.DeviceID,
	}); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("Failed to publish session event")
	}

	metrics.New("CozyClean").
		Count("SyncSessions").
		Metric("SyncActionsAccepted", float64(len(fresh)), metrics.UnitCount).
		Metric("SyncActionsDuplicate", float64(duplicates), metrics.UnitCount).
		Metric("SyncSavedBytes", float64(req.SessionLog.SavedBytes), metrics.UnitBytes).
		Property("uid", uid).
		Property("sessionId", req.SessionLog.SessionID).
		Flush()

	log.Info().
		Str("uid", uid).
		Str("sessionId", req.SessionLog.SessionID).
		Int("accepted", len(fresh)).
		Int("duplicates", duplicates).
		Int64("savedBytes", req.SessionLog.SavedBytes).
		Msg("Session synced")

	respondTotals(w, ctx, uid, len(fresh), duplicates)
}

// GET /api/v1/sync/finalized
//
// Returns every photo MD5 the user has already finalized, so the app can
// exclude them from the next scan before building burst groups.
func handleSyncFinalized(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uid := uidFrom(r)

	actions, err := blitzStore.GetActions(r.Context(), uid)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to list finalized photos", err.Error())
		return
	}

	ids := make([]string, 0, len(actions))
	for _, a := range actions {
		ids = append(ids, a.PhotoID)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"photoIds": ids,
		"count":    len(ids),
	})
}

func validateSyncUpload(rec *store.SessionLog, actions []store.PhotoAction) error {
	if err := validateSessionID(rec.SessionID); err != nil {
		return err
	}
	switch rec.Mode {
	case store.ModeQuick, store.ModeDeep, store.ModeTimeTravel:
	default:
		return fmt.Errorf("invalid mode: %d", rec.Mode)
	}
	if rec.KeptCount < 0 || rec.DeletedCount < 0 || rec.FavoriteCount < 0 || rec.SavedBytes < 0 {
		return fmt.Errorf("negative counts are not allowed")
	}
	if len(actions) > maxSyncActions {
		return fmt.Errorf("too many actions: max %d per upload", maxSyncActions)
	}
	for i := range actions {
		if err := validatePhotoID(actions[i].PhotoID); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
		switch actions[i].ActionType {
		case store.ActionKeep, store.ActionDelete, store.ActionFavorite:
		default:
			return fmt.Errorf("action %d: invalid actionType %d", i, actions[i].ActionType)
		}
		if actions[i].SizeBytes < 0 {
			return fmt.Errorf("action %d: negative sizeBytes", i)
		}
	}
	return nil
}

// consumeFlooring spends cost energy, draining whatever remains when the
// balance cannot cover it.
func consumeFlooring(ctx context.Context, uid string, cost int64) {
	ledger := blitzStore.Ledger()
	err := ledger.Consume(ctx, uid, cost)
	if err == nil {
		return
	}
	if !errors.Is(err, energy.ErrInsufficient) {
		log.Warn().Err(err).Str("uid", uid).Msg("Energy consume failed")
		return
	}
	remaining, rerr := ledger.Current(ctx, uid)
	if rerr != nil || remaining <= 0 {
		return
	}
	if err := ledger.Consume(ctx, uid, remaining); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("Energy floor-drain failed")
		return
	}
	log.Info().Str("uid", uid).Int64("cost", cost).Int64("drained", remaining).Msg("Energy exhausted, floored at zero")
}

// mirrorToRecords copies the session into the Aurora analytics store.
// Failures are logged, never surfaced: DynamoDB already holds the data.
func mirrorToRecords(ctx context.Context, uid string, rec *store.SessionLog, fresh []store.PhotoAction) {
	if recordsClient == nil {
		return
	}
	if err := recordsClient.InsertSessionLog(ctx, uid, rec); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("Records mirror: session insert failed")
	}
	if len(fresh) > 0 {
		if err := recordsClient.InsertActions(ctx, uid, fresh); err != nil {
			log.Warn().Err(err).Str("uid", uid).Msg("Records mirror: action insert failed")
		}
	}
	if err := blitzStore.TouchActivity(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to touch Aurora activity marker")
	}
}

// respondTotals sends the accepted/duplicate counts plus fresh lifetime
// totals read back from the profile.
func respondTotals(w http.ResponseWriter, ctx context.Context, uid string, accepted, duplicates int) {
	totals := syncTotals{}
	if user, err := blitzStore.GetUser(ctx, uid); err == nil && user != nil {
		totals = syncTotals{
			TotalSavedBytes:   user.TotalSavedBytes,
			TotalDeletedCount: user.TotalDeletedCount,
			TotalSavedDisplay: format.Bytes(user.TotalSavedBytes),
			CurrentEnergy:     user.CurrentEnergy,
		}
	} else if err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("Failed to read totals after sync")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accepted":   accepted,
		"duplicates": duplicates,
		"totals":     totals,
	})
}
