package jobs

import (
	"net/http"
	"strings"
)

// ParseRoute extracts the job ID and action from a URL path like /api/session/{id}/{action}.
// apiPrefix should be like "/api/session/", idPrefix should be like "ses-".
// Returns the normalized job ID and action, or empty strings if the path is invalid.
func ParseRoute(path, apiPrefix, idPrefix string) (jobID, action string, ok bool) {
	parts := strings.Split(strings.TrimPrefix(path, apiPrefix), "/")
	if len(parts) < 2 {
		return "", "", false
	}

	jobID = parts[0]
	if !strings.HasPrefix(jobID, idPrefix) {
		jobID = idPrefix + jobID
	}
	return jobID, parts[1], true
}

// CheckOwnership verifies the clientId query param matches the ID the job
// was created under. Local companion servers bind jobs to the browser tab
// that started them so a second tab cannot steal a session.
func CheckOwnership(r *http.Request, jobClientID string) bool {
	clientID := r.URL.Query().Get("clientId")
	return clientID != "" && clientID == jobClientID
}
