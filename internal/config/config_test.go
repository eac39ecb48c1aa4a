package config

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.BurstThresholdMs != 1500 {
		t.Errorf("BurstThresholdMs = %d, want 1500", c.BurstThresholdMs)
	}
	if c.FavoritesCap != 6 {
		t.Errorf("FavoritesCap = %d, want 6", c.FavoritesCap)
	}
	if c.InitialEnergy != 50 {
		t.Errorf("InitialEnergy = %d, want 50", c.InitialEnergy)
	}
	if c.DecisionCost != 1 {
		t.Errorf("DecisionCost = %d, want 1", c.DecisionCost)
	}
	if c.LoginCode != "1234" {
		t.Errorf("LoginCode = %q, want 1234", c.LoginCode)
	}
}

func TestMerge(t *testing.T) {
	c := Default().Merge(map[string]string{
		KeyBurstThresholdMs: "3000",
		KeyFavoritesCap:     "10",
		KeyLoginCode:        "9876",
		"unknown_key":       "whatever",
	})

	if c.BurstThresholdMs != 3000 {
		t.Errorf("BurstThresholdMs = %d, want 3000", c.BurstThresholdMs)
	}
	if c.FavoritesCap != 10 {
		t.Errorf("FavoritesCap = %d, want 10", c.FavoritesCap)
	}
	if c.LoginCode != "9876" {
		t.Errorf("LoginCode = %q, want 9876", c.LoginCode)
	}
	// Untouched keys keep defaults.
	if c.DecisionCost != 1 {
		t.Errorf("DecisionCost = %d, want 1", c.DecisionCost)
	}
}

func TestMerge_BadValuesKeepPrevious(t *testing.T) {
	c := Default().Merge(map[string]string{
		KeyBurstThresholdMs: "not-a-number",
		KeyFavoritesCap:     "-5",
		KeyDecisionCost:     "0",
	})

	if c.BurstThresholdMs != 1500 {
		t.Errorf("BurstThresholdMs = %d, want 1500", c.BurstThresholdMs)
	}
	if c.FavoritesCap != 6 {
		t.Errorf("FavoritesCap = %d, want 6", c.FavoritesCap)
	}
	if c.DecisionCost != 1 {
		t.Errorf("DecisionCost = %d, want 1", c.DecisionCost)
	}
}

func TestFromEnv_OverridesMerge(t *testing.T) {
	t.Setenv("BLITZ_BURST_THRESHOLD_MS", "2000")
	t.Setenv("BLITZ_LOGIN_CODE", "4321")

	c := Default().
		Merge(map[string]string{KeyBurstThresholdMs: "3000"}).
		FromEnv()

	if c.BurstThresholdMs != 2000 {
		t.Errorf("BurstThresholdMs = %d, want 2000 (env wins)", c.BurstThresholdMs)
	}
	if c.LoginCode != "4321" {
		t.Errorf("LoginCode = %q, want 4321", c.LoginCode)
	}
}

func TestLoginCodeNotSerialized(t *testing.T) {
	data, err := json.Marshal(Default())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "1234") {
		t.Errorf("login code leaked into client JSON: %s", data)
	}
	if !strings.Contains(string(data), "burstThresholdMs") {
		t.Errorf("client JSON missing burstThresholdMs: %s", data)
	}
}
