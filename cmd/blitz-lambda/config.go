package main

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/config"
)

// GET /api/v1/config
//
// Serves the merged runtime config so the app can tune thresholds
// without an app-store release. Reads the store fresh on every call:
// operators expect a table write to take effect immediately, not on the
// next cold start. Keys without a compiled field pass through untouched
// so server-driven feature flags need no binary change.
func handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	values, err := blitzStore.ConfigValues(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("Config table unavailable, serving defaults")
		values = nil
	}
	cfg := config.Default().Merge(values).FromEnv()

	resp := map[string]interface{}{
		"burstThresholdMs":  cfg.BurstThresholdMs,
		"favoritesCap":      cfg.FavoritesCap,
		"initialEnergy":     cfg.InitialEnergy,
		"decisionCost":      cfg.DecisionCost,
		"offloadThreshold":  cfg.OffloadThreshold,
		"exportExpiryHours": cfg.ExportExpiryHours,
	}
	for key, raw := range values {
		if config.Known(key) {
			continue
		}
		if json.Valid([]byte(raw)) {
			resp[key] = json.RawMessage(raw)
		} else {
			resp[key] = raw
		}
	}

	respondJSON(w, http.StatusOK, resp)
}
