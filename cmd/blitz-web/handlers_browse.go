package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cozyclean/blitz/internal/library"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// GET /api/browse?path=...
func handleBrowse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dirPath := r.URL.Query().Get("path")
	if dirPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "cannot determine home directory")
			return
		}
		dirPath = home
	}

	if containsPathTraversal(dirPath) {
		httpError(w, http.StatusBadRequest, "invalid path")
		return
	}

	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid path")
		return
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			httpError(w, http.StatusNotFound, "path not found")
			return
		}
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		httpError(w, http.StatusBadRequest, "path is not a directory")
		return
	}

	dirEntries, err := os.ReadDir(absPath)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "cannot read directory")
		return
	}

	type dirListing struct {
		Name       string `json:"name"`
		Path       string `json:"path"`
		IsDir      bool   `json:"isDir"`
		Size       int64  `json:"size"`
		MIMEType   string `json:"mimeType,omitempty"`
		PhotoCount int    `json:"photoCount,omitempty"`
	}

	// photoCount lets the frontend show how triage-worthy each subfolder
	// is before committing to a full scan.
	entries := make([]dirListing, 0, len(dirEntries))
	photosHere := 0
	for _, de := range dirEntries {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}

		entryPath := filepath.Join(absPath, de.Name())
		fi, err := de.Info()
		if err != nil {
			continue
		}

		entry := dirListing{
			Name:  de.Name(),
			Path:  entryPath,
			IsDir: de.IsDir(),
			Size:  fi.Size(),
		}

		if de.IsDir() {
			entry.PhotoCount = countPhotos(entryPath)
		} else {
			ext := strings.ToLower(filepath.Ext(de.Name()))
			if !library.IsPhoto(ext) {
				continue
			}
			if mime, err := library.MIMEType(ext); err == nil {
				entry.MIMEType = mime
			}
			photosHere++
		}

		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	parent := filepath.Dir(absPath)
	if parent == absPath {
		parent = ""
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"path":       absPath,
		"parent":     parent,
		"entries":    entries,
		"photoCount": photosHere,
	})
}

// countPhotos is a shallow, name-only count. It deliberately does not
// recurse or open files; the real scan happens at session start.
func countPhotos(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		if library.IsPhoto(strings.ToLower(filepath.Ext(de.Name()))) {
			n++
		}
	}
	return n
}

// POST /api/pick
// Opens the native OS folder picker and returns the selected path.
func handlePick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	selected, err := zenity.SelectFile(
		zenity.Directory(),
		zenity.Title("Select photo folder"),
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"path":     "",
				"canceled": true,
			})
			return
		}
		log.Error().Err(err).Msg("Folder picker failed")
		httpError(w, http.StatusInternalServerError, "folder picker failed")
		return
	}

	log.Info().Str("path", selected).Msg("Folder picked via native dialog")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"path":     selected,
		"canceled": false,
	})
}
