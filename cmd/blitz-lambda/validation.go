package main

import (
	"fmt"
	"regexp"
	"strings"
)

// md5Regex matches a photo ID: 32 lowercase hex characters.
var md5Regex = regexp.MustCompile(`^[0-9a-f]{32}$`)

// sessionIDRegex matches client-generated session IDs: safe characters,
// at most 64 long (the sync_session_logs column width).
var sessionIDRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

func validatePhotoID(id string) error {
	if !md5Regex.MatchString(id) {
		return fmt.Errorf("invalid photoId: must be 32 lowercase hex characters")
	}
	return nil
}

func validateSessionID(id string) error {
	if !sessionIDRegex.MatchString(id) {
		return fmt.Errorf("invalid sessionId: up to 64 characters of [A-Za-z0-9._-]")
	}
	return nil
}

// validateOwnedKey checks an S3 key names an object under the caller's
// prefix: "{uid}/{filename}" with no traversal tricks.
func validateOwnedKey(uid, key string) error {
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("invalid key")
	}
	parts := strings.SplitN(key, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return fmt.Errorf("invalid key format: expected <uid>/<filename>")
	}
	if parts[0] != uid {
		return fmt.Errorf("key does not belong to caller")
	}
	return nil
}
