package tabular

import (
	"path/filepath"
	"strings"
)

// Delimiter picks the field separator from the file extension alone: tab for
// ".tsv", comma for everything else. Content is never sniffed, so a tab file
// saved as ".csv" parses as a single column.
func Delimiter(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}

// SupportedExtensions lists the extensions accepted for upload.
//
//nolint:gochecknoglobals // read-only lookup
var SupportedExtensions = []string{".csv", ".tsv", ".txt"}

// IsSupported reports whether the file name has an accepted extension.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
