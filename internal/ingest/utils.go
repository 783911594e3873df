package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/report-generator/constants"
)

// AllowedExt checks if a file extension is in the accepted set.
func AllowedExt(ext string) bool {
	return constants.IsAllowedExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// MediaTypeByExt maps an accepted extension to its media type, or "".
func MediaTypeByExt(ext string) string {
	return constants.MediaTypeByExt(ext)
}
