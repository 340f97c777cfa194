package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FormatForPath returns the export format implied by a file extension.
func FormatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".jsonl", ".ndjson":
		return FormatJSONL, true
	}
	return 0, false
}

// ScanDir walks dir and returns every export file below it, sorted by path.
// Unreadable entries are skipped.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	var files []DiscoveredFile
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		format, ok := FormatForPath(path)
		if !ok {
			return nil
		}
		df := DiscoveredFile{Path: path, Format: format}
		if info, err := d.Info(); err == nil {
			df.Size = info.Size()
		}
		files = append(files, df)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Discover expands a mix of file and directory arguments into export files.
// Explicit files with an unknown extension are read as JSON.
func Discover(paths []string) ([]DiscoveredFile, error) {
	var files []DiscoveredFile
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			found, err := ScanDir(p)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
			continue
		}
		format, _ := FormatForPath(p)
		files = append(files, DiscoveredFile{Path: p, Size: info.Size(), Format: format})
	}
	return files, nil
}
