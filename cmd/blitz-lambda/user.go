package main

import (
	"net/http"

	"github.com/cozyclean/blitz/internal/format"
	"github.com/cozyclean/blitz/internal/store"
)

// GET /api/v1/user/profile
func handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uid := uidFrom(r)

	user, err := blitzStore.GetUser(r.Context(), uid)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to load profile", err.Error())
		return
	}
	if user == nil {
		httpError(w, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		*store.User
		TotalSavedDisplay string `json:"totalSavedDisplay"`
	}{
		User:              user,
		TotalSavedDisplay: format.Bytes(user.TotalSavedBytes),
	})
}

// GET /api/v1/user/energy
func handleEnergy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uid := uidFrom(r)

	user, err := blitzStore.GetUser(r.Context(), uid)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to load energy", err.Error())
		return
	}
	if user == nil {
		httpError(w, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"energy": user.CurrentEnergy,
		"isPro":  user.IsPro,
	})
}
