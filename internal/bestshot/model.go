package bestshot

import "os"

const (
	// ModelGemini25Flash is stable, balanced performance.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini25FlashLite is for high-throughput, lowest cost.
	ModelGemini25FlashLite = "gemini-2.5-flash-lite"
)

// DefaultModelName is the default Gemini model. Picking the best of a burst
// is a perception task, not a reasoning one, so the cheapest tier is enough.
const DefaultModelName = ModelGemini25FlashLite

// ModelName returns the Gemini model to use, resolved from the GEMINI_MODEL
// environment variable with DefaultModelName as the fallback.
func ModelName() string {
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	return DefaultModelName
}
