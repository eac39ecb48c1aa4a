package bestshot

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestPickBest_SingleFrameShortCircuit(t *testing.T) {
	// One-photo groups must resolve without touching the API, so a nil
	// client is safe here.
	p := NewPicker(nil)

	verdict, err := p.PickBest(context.Background(), []Photo{{Data: []byte{0x1}, MIMEType: "image/jpeg"}})
	if err != nil {
		t.Fatalf("PickBest() unexpected error: %v", err)
	}
	if verdict.BestIndex != 0 {
		t.Errorf("BestIndex = %d, want 0", verdict.BestIndex)
	}
}

func TestPickBest_EmptyGroup(t *testing.T) {
	p := NewPicker(nil)
	if _, err := p.PickBest(context.Background(), nil); err == nil {
		t.Error("PickBest() with no photos expected error, got nil")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want CallErrorType
	}{
		{"nil-safe api error 429", &genai.APIError{Code: 429, Message: "rate limited"}, ErrTypeQuotaExceeded},
		{"api error 403", &genai.APIError{Code: 403, Message: "forbidden"}, ErrTypeInvalidKey},
		{"api error 503", &genai.APIError{Code: 503, Message: "unavailable"}, ErrTypeNetworkError},
		{"api error unexpected code", &genai.APIError{Code: 418, Message: "teapot"}, ErrTypeUnknown},
		{"invalid key text", errors.New("API key not valid. Please pass a valid API key."), ErrTypeInvalidKey},
		{"quota text", errors.New("RESOURCE EXHAUSTED: quota exceeded"), ErrTypeQuotaExceeded},
		{"network text", errors.New("dial tcp: no such host"), ErrTypeNetworkError},
		{"unknown text", errors.New("something odd"), ErrTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if got.Type != tt.want {
				t.Errorf("classifyError(%v).Type = %v, want %v", tt.err, got.Type, tt.want)
			}
		})
	}
}

func TestCallErrorType_MetricValue(t *testing.T) {
	tests := []struct {
		t    CallErrorType
		want string
	}{
		{ErrTypeInvalidKey, "invalid_key"},
		{ErrTypeQuotaExceeded, "quota"},
		{ErrTypeNetworkError, "network_error"},
		{ErrTypeUnknown, "unknown"},
	}

	for _, tt := range tests {
		if got := tt.t.MetricValue(); got != tt.want {
			t.Errorf("MetricValue(%d) = %q, want %q", tt.t, got, tt.want)
		}
	}
}
