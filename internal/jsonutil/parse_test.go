package jsonutil

import "testing"

func TestStripMarkdownFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"bestIndex\": 2}\n```", "{\"bestIndex\": 2}"},
		{"bare fence", "```\n[1, 2]\n```", "[1, 2]"},
		{"no fence", "{\"bestIndex\": 0}", "{\"bestIndex\": 0}"},
		{"surrounding whitespace", "  ```json\n{}\n```  ", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkdownFences(tt.in); got != tt.want {
				t.Errorf("StripMarkdownFences = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	got, err := ExtractJSON("Here is my verdict: {\"bestIndex\": 1, \"reason\": \"sharpest\"} Hope that helps!")
	if err != nil {
		t.Fatalf("ExtractJSON error: %v", err)
	}
	want := "{\"bestIndex\": 1, \"reason\": \"sharpest\"}"
	if got != want {
		t.Errorf("ExtractJSON = %q, want %q", got, want)
	}

	if _, err := ExtractJSON("no json here at all"); err == nil {
		t.Error("expected error for text without JSON")
	}
}

func TestParseJSON(t *testing.T) {
	type verdict struct {
		BestIndex int    `json:"bestIndex"`
		Reason    string `json:"reason"`
	}

	raw := "```json\n{\"bestIndex\": 3, \"reason\": \"eyes open, least blur\"}\n```"
	v, err := ParseJSON[verdict](raw)
	if err != nil {
		t.Fatalf("ParseJSON error: %v", err)
	}
	if v.BestIndex != 3 {
		t.Errorf("BestIndex = %d, want 3", v.BestIndex)
	}
	if v.Reason != "eyes open, least blur" {
		t.Errorf("Reason = %q, want %q", v.Reason, "eyes open, least blur")
	}

	if _, err := ParseJSON[verdict]("{\"bestIndex\": oops}"); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
