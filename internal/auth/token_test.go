package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret-do-not-use")
	uid := "3f2504e0-4f89-41d3-9a0c-0305e82c3301"

	token, err := IssueToken(secret, uid, TokenTTL)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	if token == "" {
		t.Fatal("IssueToken returned empty token")
	}

	got, err := VerifyToken(secret, token)
	if err != nil {
		t.Fatalf("VerifyToken error: %v", err)
	}
	if got != uid {
		t.Errorf("VerifyToken uid = %q, want %q", got, uid)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	token, err := IssueToken([]byte("secret-a"), "uid-1", TokenTTL)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	if _, err := VerifyToken([]byte("secret-b"), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyToken error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueToken(secret, "uid-1", -time.Hour)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	if _, err := VerifyToken(secret, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyToken error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyToken_Garbage(t *testing.T) {
	tests := []string{
		"",
		"not-a-token",
		"aaaa.bbbb.cccc",
	}
	for _, raw := range tests {
		if _, err := VerifyToken([]byte("secret"), raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("VerifyToken(%q) error = %v, want ErrInvalidToken", raw, err)
		}
	}
}
