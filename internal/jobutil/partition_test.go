package jobutil

import (
	"fmt"
	"testing"
)

func mkFiles(sizes ...int64) []SizedFile {
	files := make([]SizedFile, len(sizes))
	for i, s := range sizes {
		files[i] = SizedFile{Key: fmt.Sprintf("u1/p%d.jpg", i), Size: s}
	}
	return files
}

func TestPartitionBySize(t *testing.T) {
	tests := []struct {
		name       string
		files      []SizedFile
		limit      int64
		wantCounts []int
	}{
		{"all fit in one part", mkFiles(100, 200, 300), 1000, []int{3}},
		{"split across two parts", mkFiles(400, 400, 400), 1000, []int{2, 1}},
		{"oversized file gets own part", mkFiles(1500, 100), 1000, []int{1, 1}},
		{"small file packs into earlier part", mkFiles(600, 500, 300), 1000, []int{2, 1}},
		{"empty input", nil, 1000, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := PartitionBySize(tt.files, tt.limit)
			if len(groups) != len(tt.wantCounts) {
				t.Fatalf("PartitionBySize produced %d groups, want %d", len(groups), len(tt.wantCounts))
			}
			for i, g := range groups {
				if len(g) != tt.wantCounts[i] {
					t.Errorf("group %d has %d files, want %d", i, len(g), tt.wantCounts[i])
				}
				var size int64
				for _, f := range g {
					size += f.Size
				}
				if len(g) == 1 {
					continue
				}
				if size > tt.limit {
					t.Errorf("group %d totals %d bytes, exceeds limit %d", i, size, tt.limit)
				}
			}
		})
	}
}

func TestPartitionBySizePreservesFiles(t *testing.T) {
	files := mkFiles(700, 200, 900, 50, 400)
	groups := PartitionBySize(files, 1000)

	seen := make(map[string]bool)
	for _, g := range groups {
		for _, f := range g {
			seen[f.Key] = true
		}
	}
	if len(seen) != len(files) {
		t.Errorf("groups contain %d distinct files, want %d", len(seen), len(files))
	}
}

func TestSanitizeArchiveName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Summer 2025", "Summer 2025"},
		{"my/evil\\..name", "myevilname"},
		{"  padded  ", "padded"},
		{"semi;colon\"quote", "semicolonquote"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitizeArchiveName(tt.input); got != tt.want {
			t.Errorf("sanitizeArchiveName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeArchiveNameCapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "abcde"
	}
	got := sanitizeArchiveName(long)
	if len(got) != 50 {
		t.Errorf("sanitizeArchiveName(long) length = %d, want 50", len(got))
	}
}

func TestPartName(t *testing.T) {
	tests := []struct {
		label string
		i     int
		total int
		want  string
	}{
		{"Summer", 0, 1, "Summer.zip"},
		{"Summer", 1, 3, "Summer-part2.zip"},
		{"", 0, 1, "cozyclean-export.zip"},
		{"!!!", 0, 2, "cozyclean-export-part1.zip"},
	}

	for _, tt := range tests {
		if got := PartName(tt.label, tt.i, tt.total); got != tt.want {
			t.Errorf("PartName(%q, %d, %d) = %q, want %q", tt.label, tt.i, tt.total, got, tt.want)
		}
	}
}
