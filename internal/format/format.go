// Package format holds small display helpers shared by the CLI, the
// web companion, and API responses.
package format

import "fmt"

// Bytes renders a byte count as a human-readable string using 1024
// steps: "512 B", "1.5 KB", "2.3 GB". Negative counts render as "0 B".
func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	value := float64(n)
	suffixes := []string{"KB", "MB", "GB", "TB", "PB"}
	i := -1
	for value >= unit && i < len(suffixes)-1 {
		value /= unit
		i++
	}
	return fmt.Sprintf("%.1f %s", value, suffixes[i])
}
