// Package config holds the runtime tuning knobs for the cleanup service.
//
// Values resolve in three layers: compiled defaults, then operator overrides
// from the config table, then environment variables. Environment wins so a
// bad table write can be overridden without a deploy.
package config

import (
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Config keys as stored in the config table.
const (
	KeyBurstThresholdMs  = "burst_threshold_ms"
	KeyFavoritesCap      = "favorites_cap"
	KeyInitialEnergy     = "initial_energy"
	KeyDecisionCost      = "decision_cost"
	KeyLoginCode         = "login_code"
	KeyOffloadThreshold  = "offload_threshold"
	KeyExportExpiryHours = "export_expiry_hours"
)

// Config is the resolved set of runtime knobs. The JSON form is what
// GET /api/v1/config returns to clients; the login code never leaves
// the server.
type Config struct {
	// BurstThresholdMs is the max gap between consecutive captures that
	// still counts as the same burst.
	BurstThresholdMs int64 `json:"burstThresholdMs"`

	// FavoritesCap is the maximum favorites per cleanup pass.
	FavoritesCap int `json:"favoritesCap"`

	// InitialEnergy is the balance granted to new users.
	InitialEnergy int64 `json:"initialEnergy"`

	// DecisionCost is the energy consumed per decision.
	DecisionCost int64 `json:"decisionCost"`

	// OffloadThreshold is the photo count above which burst grouping is
	// handed to the worker pool instead of running inline.
	OffloadThreshold int `json:"offloadThreshold"`

	// ExportExpiryHours is how long export download links stay valid.
	ExportExpiryHours int `json:"exportExpiryHours"`

	// LoginCode is the accepted login code while SMS delivery is mocked.
	LoginCode string `json:"-"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		BurstThresholdMs:  1500,
		FavoritesCap:      6,
		InitialEnergy:     50,
		DecisionCost:      1,
		OffloadThreshold:  5000,
		ExportExpiryHours: 24,
		LoginCode:         "1234",
	}
}

// Merge applies overrides from the config table onto c. Keys without a
// compiled field are skipped here; the config endpoint passes them
// through to clients untouched. Unparseable values keep the previous
// setting.
func (c Config) Merge(values map[string]string) Config {
	for key, raw := range values {
		switch key {
		case KeyBurstThresholdMs:
			c.BurstThresholdMs = parseInt64(key, raw, c.BurstThresholdMs)
		case KeyFavoritesCap:
			c.FavoritesCap = parseInt(key, raw, c.FavoritesCap)
		case KeyInitialEnergy:
			c.InitialEnergy = parseInt64(key, raw, c.InitialEnergy)
		case KeyDecisionCost:
			c.DecisionCost = parseInt64(key, raw, c.DecisionCost)
		case KeyOffloadThreshold:
			c.OffloadThreshold = parseInt(key, raw, c.OffloadThreshold)
		case KeyExportExpiryHours:
			c.ExportExpiryHours = parseInt(key, raw, c.ExportExpiryHours)
		case KeyLoginCode:
			if raw != "" {
				c.LoginCode = raw
			}
		default:
			log.Debug().Str("key", key).Msg("Config key has no compiled field")
		}
	}
	return c
}

// Known reports whether key maps to a compiled Config field.
func Known(key string) bool {
	switch key {
	case KeyBurstThresholdMs, KeyFavoritesCap, KeyInitialEnergy,
		KeyDecisionCost, KeyLoginCode, KeyOffloadThreshold, KeyExportExpiryHours:
		return true
	}
	return false
}

// FromEnv applies environment variable overrides onto c.
func (c Config) FromEnv() Config {
	if v := os.Getenv("BLITZ_BURST_THRESHOLD_MS"); v != "" {
		c.BurstThresholdMs = parseInt64("BLITZ_BURST_THRESHOLD_MS", v, c.BurstThresholdMs)
	}
	if v := os.Getenv("BLITZ_FAVORITES_CAP"); v != "" {
		c.FavoritesCap = parseInt("BLITZ_FAVORITES_CAP", v, c.FavoritesCap)
	}
	if v := os.Getenv("BLITZ_INITIAL_ENERGY"); v != "" {
		c.InitialEnergy = parseInt64("BLITZ_INITIAL_ENERGY", v, c.InitialEnergy)
	}
	if v := os.Getenv("BLITZ_DECISION_COST"); v != "" {
		c.DecisionCost = parseInt64("BLITZ_DECISION_COST", v, c.DecisionCost)
	}
	if v := os.Getenv("BLITZ_OFFLOAD_THRESHOLD"); v != "" {
		c.OffloadThreshold = parseInt("BLITZ_OFFLOAD_THRESHOLD", v, c.OffloadThreshold)
	}
	if v := os.Getenv("BLITZ_EXPORT_EXPIRY_HOURS"); v != "" {
		c.ExportExpiryHours = parseInt("BLITZ_EXPORT_EXPIRY_HOURS", v, c.ExportExpiryHours)
	}
	if v := os.Getenv("BLITZ_LOGIN_CODE"); v != "" {
		c.LoginCode = v
	}
	return c
}

func parseInt64(key, raw string, fallback int64) int64 {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("Invalid config value, keeping previous")
		return fallback
	}
	return v
}

func parseInt(key, raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("Invalid config value, keeping previous")
		return fallback
	}
	return v
}
