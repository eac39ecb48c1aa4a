package jobs

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID(PrefixExport)
	if !strings.HasPrefix(id, "exp-") {
		t.Errorf("GenerateID prefix = %q, want exp-", id)
	}
	// 16 random bytes hex-encoded after the prefix.
	if len(id) != len(PrefixExport)+32 {
		t.Errorf("GenerateID length = %d, want %d", len(id), len(PrefixExport)+32)
	}

	other := GenerateID(PrefixExport)
	if id == other {
		t.Error("GenerateID returned the same ID twice")
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{GenerateID(PrefixExport), true},
		{GenerateID(PrefixPoster), true},
		{GenerateID(PrefixBestShot), true},
		{GenerateID(PrefixSession), false},
		{"exp-0123456789abcdef0123456789abcdef", true},
		{"exp-0123456789abcdef0123456789abcde", false},
		{"exp-0123456789abcdef0123456789abcdeg", false},
		{"0123456789abcdef0123456789abcdef", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantID  string
		wantAct string
		wantOK  bool
	}{
		{"full id", "/api/session/ses-abc123/decision", "ses-abc123", "decision", true},
		{"bare id gets prefix", "/api/session/abc123/undo", "ses-abc123", "undo", true},
		{"trailing segment ignored", "/api/session/ses-abc123/review/extra", "ses-abc123", "review", true},
		{"missing action", "/api/session/ses-abc123", "", "", false},
		{"empty path", "/api/session/", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, act, ok := ParseRoute(tt.path, "/api/session/", "ses-")
			if ok != tt.wantOK {
				t.Fatalf("ParseRoute ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if id != tt.wantID || act != tt.wantAct {
				t.Errorf("ParseRoute = (%q, %q), want (%q, %q)", id, act, tt.wantID, tt.wantAct)
			}
		})
	}
}
