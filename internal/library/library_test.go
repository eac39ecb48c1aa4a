package library

import (
	"testing"
)

func TestIsPhoto(t *testing.T) {
	tests := []struct {
		ext      string
		expected bool
	}{
		{".jpg", true},
		{".jpeg", true},
		{".JPG", true},
		{".JPEG", true},
		{".png", true},
		{".PNG", true},
		{".gif", true},
		{".webp", true},
		{".heic", true},
		{".HEIC", true},
		{".heif", true},
		{".mp4", false},
		{".mov", false},
		{".txt", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			result := IsPhoto(tt.ext)
			if result != tt.expected {
				t.Errorf("IsPhoto(%q) = %v, want %v", tt.ext, result, tt.expected)
			}
		})
	}
}

func TestMIMEType(t *testing.T) {
	tests := []struct {
		ext          string
		expectedMIME string
		expectError  bool
	}{
		{".jpg", "image/jpeg", false},
		{".jpeg", "image/jpeg", false},
		{".png", "image/png", false},
		{".gif", "image/gif", false},
		{".webp", "image/webp", false},
		{".heic", "image/heic", false},
		{".heif", "image/heif", false},
		{".mp4", "", true},
		{".txt", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			mime, err := MIMEType(tt.ext)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for %q, got nil", tt.ext)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error for %q: %v", tt.ext, err)
				}
				if mime != tt.expectedMIME {
					t.Errorf("MIMEType(%q) = %q, want %q", tt.ext, mime, tt.expectedMIME)
				}
			}
		})
	}
}
