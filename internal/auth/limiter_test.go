package auth

import "testing"

func TestLoginLimiter_BurstThenDeny(t *testing.T) {
	l := NewLoginLimiter()
	phone := "13800138000"

	for i := 0; i < loginBurst; i++ {
		if !l.Allow(phone) {
			t.Fatalf("attempt %d denied, want allowed", i+1)
		}
	}

	if l.Allow(phone) {
		t.Error("attempt beyond burst allowed, want denied")
	}
}

func TestLoginLimiter_PhonesIndependent(t *testing.T) {
	l := NewLoginLimiter()

	for i := 0; i < loginBurst; i++ {
		l.Allow("13800138000")
	}
	if l.Allow("13800138000") {
		t.Fatal("exhausted phone still allowed")
	}

	if !l.Allow("13900139000") {
		t.Error("fresh phone denied, want allowed")
	}
}
