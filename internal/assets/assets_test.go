package assets

import (
	"strings"
	"testing"
)

func TestBestShotSystemPromptEmbedded(t *testing.T) {
	if !strings.Contains(BestShotSystemPrompt, "photo culling assistant") {
		t.Error("system prompt missing role framing")
	}
	if !strings.Contains(BestShotSystemPrompt, "Sharpness") {
		t.Error("system prompt missing judging criteria")
	}
}

func TestRenderBestShotTask(t *testing.T) {
	prompt := RenderBestShotTask(4)

	if !strings.Contains(prompt, "4 photos") {
		t.Errorf("prompt missing frame count:\n%s", prompt)
	}
	if !strings.Contains(prompt, "numbered 0 to 3") {
		t.Errorf("prompt missing zero-based index range:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"bestIndex"`) {
		t.Errorf("prompt missing output schema:\n%s", prompt)
	}
}
