// Package bestshot asks Gemini to pick the strongest frame from a burst of
// near-duplicate photos. The verdict is advisory: it seeds the highlighted
// frame in the app, and the user can always override it.
package bestshot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/cozyclean/blitz/internal/assets"
	"github.com/cozyclean/blitz/internal/jsonutil"
	"github.com/cozyclean/blitz/internal/metrics"
)

// Photo is one burst member's preview image.
type Photo struct {
	Data     []byte
	MIMEType string
}

// Verdict is the model's pick for one burst group.
type Verdict struct {
	BestIndex int    `json:"bestIndex"`
	Reason    string `json:"reason"`
}

// Picker calls Gemini to judge burst groups.
type Picker struct {
	client *genai.Client
}

func NewPicker(client *genai.Client) *Picker {
	return &Picker{client: client}
}

// NewClient creates a Gemini API client from an API key.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// PickBest returns the model's verdict for one group. Single-photo groups
// short-circuit without an API call; the only frame is the best frame.
func (p *Picker) PickBest(ctx context.Context, photos []Photo) (*Verdict, error) {
	if len(photos) == 0 {
		return nil, fmt.Errorf("no photos in group")
	}
	if len(photos) == 1 {
		return &Verdict{BestIndex: 0, Reason: "only frame in the group"}, nil
	}

	parts := make([]*genai.Part, 0, len(photos)+1)
	for _, photo := range photos {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: photo.MIMEType,
				Data:     photo.Data,
			},
		})
	}
	parts = append(parts, &genai.Part{Text: assets.RenderBestShotTask(len(photos))})

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: assets.BestShotSystemPrompt}},
		},
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	geminiStart := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, ModelName(), contents, config)
	geminiElapsed := time.Since(geminiStart)

	m := metrics.New("CozyClean").
		Dimension("Operation", "bestShot").
		Duration("GeminiApiLatencyMs", geminiElapsed).
		Count("GeminiApiCalls")
	if err != nil {
		m.Count("GeminiApiErrors")
	}
	if resp != nil && resp.UsageMetadata != nil {
		m.Metric("GeminiInputTokens", float64(resp.UsageMetadata.PromptTokenCount), metrics.UnitCount)
		m.Metric("GeminiOutputTokens", float64(resp.UsageMetadata.CandidatesTokenCount), metrics.UnitCount)
	}
	m.Flush()

	if err != nil {
		callErr := classifyError(err)
		metrics.New("CozyClean").
			Dimension("Result", callErr.Type.MetricValue()).
			Count("GeminiCallFailures").
			Flush()
		return nil, callErr
	}
	if resp == nil {
		log.Warn().Msg("Received empty response from Gemini")
		return nil, fmt.Errorf("received empty response from Gemini API")
	}

	verdict, err := jsonutil.ParseJSON[Verdict](resp.Text())
	if err != nil {
		log.Error().Err(err).Str("response", resp.Text()).Msg("Failed to parse best-shot verdict")
		return nil, fmt.Errorf("parse verdict: %w", err)
	}
	if verdict.BestIndex < 0 || verdict.BestIndex >= len(photos) {
		return nil, fmt.Errorf("verdict index %d out of range for %d photos", verdict.BestIndex, len(photos))
	}

	log.Debug().Int("bestIndex", verdict.BestIndex).Str("reason", verdict.Reason).Msg("Best shot picked")
	return verdict, nil
}
