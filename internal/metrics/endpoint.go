package metrics

import (
	"strings"

	"github.com/cozyclean/blitz/internal/jobs"
)

// idPrefixes are the job ID families that can appear as path parameters.
var idPrefixes = []string{jobs.PrefixExport, jobs.PrefixPoster, jobs.PrefixBestShot, jobs.PrefixSession}

// NormalizeEndpoint maps a request path to a low-cardinality endpoint name
// for use as a metric dimension, so path parameters do not create unbounded
// CloudWatch dimensions.
func NormalizeEndpoint(path string) string {
	// The job status route carries an ID segment on every request, so it
	// collapses wholesale, including probes with made-up IDs.
	if strings.HasPrefix(path, "/api/v1/jobs/") {
		return "/api/v1/jobs/*"
	}
	if !looksParameterized(path) {
		return path
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		if looksLikeID(s) {
			segments[i] = "*"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func looksParameterized(path string) bool {
	for _, s := range strings.Split(strings.Trim(path, "/"), "/") {
		if looksLikeID(s) {
			return true
		}
	}
	return false
}

// looksLikeID reports whether a path segment looks like a random ID:
// mostly hex characters, with an optional job-type prefix.
func looksLikeID(s string) bool {
	for _, prefix := range idPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	if len(s) < 8 {
		return false
	}
	hexCount := 0
	for _, c := range s {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || c == '-' {
			hexCount++
		}
	}
	return float64(hexCount)/float64(len(s)) > 0.8
}
