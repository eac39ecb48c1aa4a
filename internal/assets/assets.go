// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time, so prompt wording can be tuned without touching Go code.
package assets

import (
	"bytes"
	_ "embed"
	"text/template"
)

// BestShotSystemPrompt tells the model how to judge near-duplicate burst
// frames against each other.
//
//go:embed prompts/bestshot-system.txt
var BestShotSystemPrompt string

//go:embed prompts/bestshot-task.txt
var bestShotTaskTemplate string

// Pre-parsed templates for efficiency. template.Must panics on malformed
// templates, catching errors at program startup rather than at call time.
var bestShotTaskTmpl = template.Must(template.New("bestshot-task").Parse(bestShotTaskTemplate))

// BestShotTaskData holds the dynamic data injected into the best-shot task
// prompt.
type BestShotTaskData struct {
	// Count is the number of frames in the burst group.
	Count int
	// MaxIndex is Count-1; indices in the verdict are zero-based.
	MaxIndex int
}

// RenderBestShotTask renders the per-group task prompt for a burst of n
// frames.
func RenderBestShotTask(n int) string {
	var buf bytes.Buffer
	// Template execution errors are not expected with our simple templates,
	// but we handle them gracefully by returning whatever was rendered.
	_ = bestShotTaskTmpl.Execute(&buf, BestShotTaskData{Count: n, MaxIndex: n - 1})
	return buf.String()
}
