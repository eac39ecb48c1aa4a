package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/triage"
)

// ScanOptions configures directory scanning behavior.
type ScanOptions struct {
	// MaxDepth limits recursion depth. 0 = unlimited, 1 = top-level only.
	MaxDepth int

	// Limit caps the number of photos returned. 0 = unlimited.
	Limit int

	// Seen reports whether a photo ID has already been decided in a
	// previous pass. Photos it matches are excluded before grouping,
	// so re-running a cleanup only surfaces new material. Nil means
	// nothing is filtered.
	Seen func(id string) bool
}

// Scan walks a directory tree for supported photos and returns them as
// capture items sorted by capture time ascending, oldest first. Each item
// carries the content MD5 as its ID, the EXIF capture timestamp (falling
// back to file modification time), the file size, and the absolute path
// as its preview reference.
//
// Symlinks to files are followed; symlinks to directories are skipped to
// prevent infinite loops. Unreadable files are logged and skipped. Photos
// with identical content hash to an earlier file are skipped, since IDs
// must be unique within a triage pass.
func Scan(dirPath string, opts ScanOptions) ([]triage.CaptureItem, error) {
	log.Info().
		Str("path", dirPath).
		Int("maxDepth", opts.MaxDepth).
		Int("limit", opts.Limit).
		Msg("Scanning directory for photos")

	// Check if directory exists
	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", dirPath)
		}
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	// Convert to absolute path for consistent depth calculation
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	baseDepth := strings.Count(absPath, string(os.PathSeparator))

	var items []triage.CaptureItem
	seenIDs := make(map[string]bool)
	var skippedSeen, skippedDup int
	limitReached := false

	// Walk the directory tree
	err = filepath.WalkDir(absPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error accessing path, skipping")
			return nil // Continue walking despite errors
		}

		// Check depth limit
		if opts.MaxDepth > 0 {
			currentDepth := strings.Count(path, string(os.PathSeparator)) - baseDepth
			if d.IsDir() && currentDepth >= opts.MaxDepth {
				return fs.SkipDir
			}
		}

		// Skip directories (but continue into them). Hidden directories
		// are never entered: dot-folders hold app state and previously
		// trashed photos, and rescanning them would resurface those.
		if d.IsDir() {
			if path != absPath && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}

		// Handle symlinks: follow file symlinks, skip directory symlinks
		if d.Type()&fs.ModeSymlink != 0 {
			linkTarget, err := filepath.EvalSymlinks(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Failed to resolve symlink, skipping")
				return nil
			}

			targetInfo, err := os.Stat(linkTarget)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Failed to stat symlink target, skipping")
				return nil
			}

			if targetInfo.IsDir() {
				log.Debug().Str("path", path).Msg("Skipping symlink to directory")
				return nil
			}
			// Continue processing file symlinks
		}

		// Check if limit reached
		if opts.Limit > 0 && len(items) >= opts.Limit {
			limitReached = true
			return fs.SkipAll
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !IsPhoto(ext) {
			return nil
		}

		item, err := loadItem(path)
		if err != nil {
			log.Warn().Err(err).Str("file", d.Name()).Msg("Failed to load photo, skipping")
			return nil
		}

		if seenIDs[item.ID] {
			log.Debug().Str("path", path).Str("id", item.ID).Msg("Duplicate content hash, skipping")
			skippedDup++
			return nil
		}
		seenIDs[item.ID] = true

		if opts.Seen != nil && opts.Seen(item.ID) {
			skippedSeen++
			return nil
		}

		items = append(items, item)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	// Burst grouping requires capture order; path is the tiebreak so
	// repeated scans of the same tree produce identical input.
	sort.Slice(items, func(i, j int) bool {
		if items[i].TimestampMs != items[j].TimestampMs {
			return items[i].TimestampMs < items[j].TimestampMs
		}
		return items[i].Preview < items[j].Preview
	})

	logEvent := log.Info().
		Int("totalPhotos", len(items)).
		Int("alreadyDecided", skippedSeen).
		Str("directory", dirPath)

	if skippedDup > 0 {
		logEvent = logEvent.Int("duplicates", skippedDup)
	}
	if limitReached {
		logEvent = logEvent.Bool("limitReached", true)
	}

	logEvent.Msg("Directory scan complete")

	return items, nil
}

// loadItem builds a capture item for a single photo on disk.
func loadItem(path string) (triage.CaptureItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return triage.CaptureItem{}, fmt.Errorf("failed to stat file: %w", err)
	}

	id, err := ContentID(path)
	if err != nil {
		return triage.CaptureItem{}, err
	}

	taken, ok := CaptureTime(path)
	if !ok {
		taken = info.ModTime()
	}

	return triage.CaptureItem{
		ID:          id,
		TimestampMs: taken.UnixMilli(),
		SizeBytes:   info.Size(),
		Preview:     path,
	}, nil
}
