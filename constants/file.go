package constants

import "strings"

// FileKind is the closed set of classifications an uploaded file can receive.
type FileKind string

const (
	FileKindImage       FileKind = "image"
	FileKindPDF         FileKind = "pdf"
	FileKindCSV         FileKind = "csv"
	FileKindJSON        FileKind = "json"
	FileKindSpreadsheet FileKind = "spreadsheet"
	FileKindUnsupported FileKind = "unsupported"
)

// Supported reports whether files of this kind produce a prompt fragment.
func (k FileKind) Supported() bool {
	return k != FileKindUnsupported && k != ""
}

// MaxSpreadsheetSheets caps how many sheets of a workbook reach the prompt.
const MaxSpreadsheetSheets = 3

// AllowedExtensions maps each extension accepted by the upload surfaces to
// the media type it implies.
var AllowedExtensions = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"heic": "image/heic",
	"csv":  "text/csv",
	"txt":  "text/plain",
	"pdf":  "application/pdf",
	"json": "application/json",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"xls":  "application/vnd.ms-excel",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without the dot) is accepted.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MediaTypeByExt maps an accepted extension to its media type, or "".
func MediaTypeByExt(ext string) string {
	return AllowedExtensions[NormalizeExt(ext)]
}
