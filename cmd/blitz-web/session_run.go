package main

import (
	"context"
	"fmt"

	"github.com/cozyclean/blitz/internal/burst"
	"github.com/cozyclean/blitz/internal/energy"
	"github.com/cozyclean/blitz/internal/library"
	"github.com/cozyclean/blitz/internal/triage"
	"github.com/rs/zerolog/log"
)

// localUser keys the in-process energy ledger. One balance per run, no
// matter how many sessions get started.
const localUser = "local"

// loadSession scans the job's directory, classifies the burst groups, and
// arms the triage engine. Runs on its own goroutine; the frontend polls
// state until the status leaves "loading".
func loadSession(job *sessionJob) {
	items, err := library.Scan(job.dir, library.ScanOptions{})
	if err != nil {
		setSessionError(job, fmt.Sprintf("Scan failed: %v", err))
		return
	}
	if len(items) == 0 {
		setSessionError(job, "No photos found in the selected folder")
		return
	}

	// Large scans go through the offloaded classifier's worker; small
	// ones are not worth the channel hop.
	var classifier burst.Classifier = burst.Inline{}
	if len(items) > webConfig.OffloadThreshold {
		off := burst.NewOffloaded()
		defer off.Close()
		classifier = off
	}

	boundaries, err := classifier.Classify(context.Background(), triage.Timestamps(items), webConfig.BurstThresholdMs)
	if err != nil {
		setSessionError(job, fmt.Sprintf("Burst classification failed: %v", err))
		return
	}

	groups, err := triage.BuildGroups(items, boundaries)
	if err != nil {
		setSessionError(job, fmt.Sprintf("Grouping failed: %v", err))
		return
	}

	seed, err := ledger.Current(context.Background(), localUser)
	if err != nil {
		seed = webConfig.InitialEnergy
	}
	gate := energy.NewGate(ledger, localUser, seed)

	session, err := triage.NewSession(groups, triage.Options{
		FavoritesCap: webConfig.FavoritesCap,
		DecisionCost: webConfig.DecisionCost,
		Gate:         gate,
	})
	if err != nil {
		setSessionError(job, fmt.Sprintf("Session setup failed: %v", err))
		return
	}

	job.mu.Lock()
	job.session = session
	job.gate = gate
	job.status = "ready"
	job.mu.Unlock()

	bursts := 0
	for _, g := range groups {
		if g.IsBurst() {
			bursts++
		}
	}
	log.Info().
		Str("session", job.id).
		Int("photos", len(items)).
		Int("groups", len(groups)).
		Int("bursts", bursts).
		Int64("energy", gate.Remaining()).
		Msg("Session ready")
}

func setSessionError(job *sessionJob, msg string) {
	job.mu.Lock()
	defer job.mu.Unlock()
	job.status = "error"
	job.errMsg = msg
	log.Error().Str("session", job.id).Str("error", msg).Msg("Session load failed")
}
