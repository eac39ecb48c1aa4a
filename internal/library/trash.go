package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TrashDirName is the folder created under a scanned root to hold photos
// removed by a committed session. Files are moved rather than unlinked so
// a delete stays recoverable until the user empties the folder; the scanner
// never descends into dot-folders, so trashed photos do not resurface on
// the next scan.
const TrashDirName = ".blitz-trash"

// MoveToTrash relocates path into the trash folder under root and returns
// the new location. Name collisions get a numeric suffix so repeated
// sessions never overwrite an earlier trashed file.
func MoveToTrash(root, path string) (string, error) {
	trashDir := filepath.Join(root, TrashDirName)
	if err := os.MkdirAll(trashDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create trash folder: %w", err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	dest := filepath.Join(trashDir, base)
	for i := 1; ; i++ {
		if _, err := os.Lstat(dest); errors.Is(err, fs.ErrNotExist) {
			break
		}
		dest = filepath.Join(trashDir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}

	if err := os.Rename(path, dest); err != nil {
		return "", fmt.Errorf("failed to move %s to trash: %w", base, err)
	}
	return dest, nil
}
