package jobutil

import (
	"fmt"
	"sort"
	"strings"
)

// SizedFile is an object selected for an export, with its size in bytes.
type SizedFile struct {
	Key  string
	Size int64
}

// PartitionBySize packs files into groups of at most limit bytes using
// first-fit decreasing. A file larger than the limit gets a group of
// its own rather than being rejected, so a single oversized photo still
// exports.
func PartitionBySize(files []SizedFile, limit int64) [][]SizedFile {
	sorted := make([]SizedFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Size > sorted[j].Size })

	var groups [][]SizedFile
	var groupSizes []int64
	for _, f := range sorted {
		placed := false
		for i := range groups {
			if groupSizes[i]+f.Size <= limit {
				groups[i] = append(groups[i], f)
				groupSizes[i] += f.Size
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []SizedFile{f})
			groupSizes = append(groupSizes, f.Size)
		}
	}
	return groups
}

// PartName builds the archive filename for part i of total. A single
// part gets a plain name, multiple parts get a numbered suffix.
func PartName(label string, i, total int) string {
	base := sanitizeArchiveName(label)
	if base == "" {
		base = "cozyclean-export"
	}
	if total == 1 {
		return base + ".zip"
	}
	return fmt.Sprintf("%s-part%d.zip", base, i+1)
}

// sanitizeArchiveName keeps letters, digits, dash, underscore and space
// so the result is safe in both S3 keys and Content-Disposition headers.
// The result is trimmed and capped at 50 characters.
func sanitizeArchiveName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == ' ':
			return r
		default:
			return -1
		}
	}, name)
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) > 50 {
		cleaned = strings.TrimSpace(cleaned[:50])
	}
	return cleaned
}
