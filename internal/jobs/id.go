package jobs

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/rs/zerolog/log"
)

// Job ID prefixes, one per async job family. Keeping the family visible
// in the ID makes CloudWatch log filtering trivial.
const (
	PrefixExport   = "exp-"
	PrefixPoster   = "pst-"
	PrefixBestShot = "bst-"
	PrefixSession  = "ses-"
)

// Job type names, shared between the API Lambda that dispatches jobs
// and the worker Lambda that executes them.
const (
	TypeExport   = "export"
	TypePoster   = "poster"
	TypeBestShot = "bestshot"
)

// GenerateID creates a new cryptographically random job ID with the given prefix.
// The prefix should include a trailing dash, e.g. "exp-", "pst-", "bst-".
func GenerateID(prefix string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		log.Fatal().Err(err).Msgf("Failed to generate random %s job ID", prefix)
	}
	return prefix + hex.EncodeToString(b)
}

// ValidID reports whether id has the shape GenerateID produces for one of
// the worker job families: exp-, pst- or bst- followed by 32 hex characters.
// Session IDs are local to the companion server and never pass this check.
func ValidID(id string) bool {
	var rest string
	switch {
	case strings.HasPrefix(id, PrefixExport):
		rest = id[len(PrefixExport):]
	case strings.HasPrefix(id, PrefixPoster):
		rest = id[len(PrefixPoster):]
	case strings.HasPrefix(id, PrefixBestShot):
		rest = id[len(PrefixBestShot):]
	default:
		return false
	}
	if len(rest) != 32 {
		return false
	}
	_, err := hex.DecodeString(rest)
	return err == nil
}
