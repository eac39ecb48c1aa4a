package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/auth"
	"github.com/cozyclean/blitz/internal/metrics"
	"github.com/cozyclean/blitz/internal/store"
)

// POST /api/v1/auth/login
// Body: {"phone": "+8613800138000", "code": "1234"}
//
// The code is checked against the runtime config's mock code; SMS
// delivery is stubbed out. First login creates the user.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !auth.ValidPhone(req.Phone) {
		httpError(w, http.StatusBadRequest, "invalid phone number")
		return
	}
	if !loginLimiter.Allow(req.Phone) {
		httpError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}
	if req.Code != appConfig.LoginCode {
		metrics.New("CozyClean").Count("LoginCodeRejected").Flush()
		httpError(w, http.StatusUnauthorized, "invalid login code")
		return
	}

	ctx := r.Context()
	uid, err := blitzStore.GetUIDByPhone(ctx, req.Phone)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "login failed", err.Error())
		return
	}

	isNew := false
	if uid == "" {
		user := &store.User{
			UID:           uuid.NewString(),
			Phone:         req.Phone,
			Nickname:      "User" + tail(req.Phone, 4),
			CurrentEnergy: appConfig.InitialEnergy,
			CreatedAt:     time.Now().UnixMilli(),
		}
		// CreateUser returns the winner's uid if a concurrent login
		// created this phone first.
		uid, err = blitzStore.CreateUser(ctx, user)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "login failed", err.Error())
			return
		}
		isNew = uid == user.UID
	}

	if err := blitzStore.TouchLastLogin(ctx, uid); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("Failed to update lastLoginAt")
	}

	token, err := auth.IssueToken(jwtSecret, uid, auth.TokenTTL)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "login failed", err.Error())
		return
	}

	log.Info().
		Str("uid", uid).
		Str("phone", auth.MaskPhone(req.Phone)).
		Bool("isNew", isNew).
		Msg("User logged in")

	metrics.New("CozyClean").
		Count("Logins").
		Property("isNew", isNew).
		Flush()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"uid":   uid,
		"isNew": isNew,
	})
}

// tail returns the last n characters of s, or all of s when shorter.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
