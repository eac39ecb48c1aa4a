package s3util

import "testing"

func TestPhotoIDFromKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"u1/photo-9.jpg", "photo-9"},
		{"u1/clip.heic", "clip"},
		{"bare.png", "bare"},
		{"u1/noext", "noext"},
	}

	for _, tt := range tests {
		if got := PhotoIDFromKey(tt.key); got != tt.want {
			t.Errorf("PhotoIDFromKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
