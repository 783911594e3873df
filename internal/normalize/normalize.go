package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/joseph-ayodele/report-generator/constants"
)

// File is one uploaded source file.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// Fragment is one unit of prompt content derived from one File. Inline
// fragments carry raw bytes plus a media type; the rest carry text.
type Fragment struct {
	Kind      constants.FileKind
	Source    string
	Inline    bool
	MediaType string
	Data      []byte
	Text      string
}

// Warning reports a file that produced no fragment.
type Warning struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func (w Warning) String() string { return w.Name + ": " + w.Reason }

// Result is the normalized prompt payload, in upload order.
type Result struct {
	Fragments []Fragment
	Warnings  []Warning
}

// Normalizer turns uploaded files into prompt fragments.
type Normalizer struct {
	logger    *slog.Logger
	maxSheets int
}

func New(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger, maxSheets: constants.MaxSpreadsheetSheets}
}

// Normalize classifies every file and builds exactly one fragment per
// recognized file. Unrecognized or unreadable files become warnings. The
// only error returned is ctx cancellation.
func (n *Normalizer) Normalize(ctx context.Context, files []File) (Result, error) {
	start := time.Now()
	var out Result
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		mediaType := DetectMediaType(f.Name, f.MediaType, f.Data)
		kind := Classify(f.Name, mediaType)

		frag, err := n.fragment(kind, f, mediaType)
		if err != nil {
			n.logger.Warn("normalize.file.unreadable", "name", f.Name, "kind", kind, "error", err)
			out.Warnings = append(out.Warnings, Warning{Name: f.Name, Reason: err.Error()})
			continue
		}
		if !kind.Supported() {
			n.logger.Warn("normalize.file.unsupported", "name", f.Name, "media_type", mediaType)
			out.Warnings = append(out.Warnings, Warning{
				Name:   f.Name,
				Reason: fmt.Sprintf("unsupported file type %q", mediaType),
			})
			continue
		}
		out.Fragments = append(out.Fragments, frag)
	}
	n.logger.Info("normalize.ok",
		"files", len(files),
		"fragments", len(out.Fragments),
		"warnings", len(out.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (n *Normalizer) fragment(kind constants.FileKind, f File, mediaType string) (Fragment, error) {
	frag := Fragment{Kind: kind, Source: f.Name}
	switch kind {
	case constants.FileKindImage:
		frag.Inline = true
		frag.MediaType = mediaType
		frag.Data = f.Data
	case constants.FileKindPDF:
		frag.Inline = true
		frag.MediaType = "application/pdf"
		frag.Data = f.Data
	case constants.FileKindCSV:
		frag.Text = fmt.Sprintf("[CSV Data: %s]\n%s", f.Name, decodeText(f.Data))
	case constants.FileKindJSON:
		frag.Text = fmt.Sprintf("[JSON Data: %s]\n%s", f.Name, decodeText(f.Data))
	case constants.FileKindSpreadsheet:
		text, err := workbookText(f.Data, n.maxSheets)
		if err != nil {
			return Fragment{}, fmt.Errorf("read spreadsheet: %w", err)
		}
		frag.Text = fmt.Sprintf("[Excel Data: %s]\n%s", f.Name, text)
	}
	return frag, nil
}

// Classify maps a file to its kind. The first matching rule wins.
func Classify(name, mediaType string) constants.FileKind {
	lname := strings.ToLower(name)
	mt := strings.ToLower(mediaType)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return constants.FileKindImage
	case mt == "text/csv" || mt == "text/plain" || strings.HasSuffix(lname, ".csv"):
		return constants.FileKindCSV
	case mt == "application/json" || strings.HasSuffix(lname, ".json"):
		return constants.FileKindJSON
	case mt == "application/pdf" || strings.HasSuffix(lname, ".pdf"):
		return constants.FileKindPDF
	case strings.HasSuffix(lname, ".xlsx") || strings.HasSuffix(lname, ".xls") ||
		strings.Contains(mt, "spreadsheet") || strings.Contains(mt, "excel"):
		return constants.FileKindSpreadsheet
	}
	return constants.FileKindUnsupported
}

// DetectMediaType returns the declared media type without parameters. When
// none (or only application/octet-stream) is declared it sniffs the content,
// then falls back to the extension. A sniffed text subtype other than csv or
// plain yields to an accepted extension, so tab-separated or markup-looking
// .txt and .csv files stay tabular.
func DetectMediaType(name, declared string, data []byte) string {
	if mt := stripParams(declared); mt != "" && mt != "application/octet-stream" {
		return mt
	}
	ext := filepath.Ext(name)
	if len(data) > 0 {
		sniffed := stripParams(mimetype.Detect(data).String())
		if isLooseText(sniffed) {
			if byExt := constants.MediaTypeByExt(ext); byExt != "" {
				return byExt
			}
		}
		if sniffed != "" && sniffed != "application/octet-stream" && sniffed != "application/zip" {
			return sniffed
		}
	}
	if byExt := constants.MediaTypeByExt(ext); byExt != "" {
		return byExt
	}
	if byExt := stripParams(mime.TypeByExtension(ext)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

// isLooseText matches sniffed text subtypes that Classify would reject.
func isLooseText(mt string) bool {
	return strings.HasPrefix(mt, "text/") && mt != "text/csv" && mt != "text/plain"
}

func stripParams(mt string) string {
	mt = strings.TrimSpace(mt)
	if mt == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return parsed
	}
	return strings.ToLower(mt)
}

// decodeText honours a UTF-8 or UTF-16 BOM and otherwise assumes UTF-8.
func decodeText(data []byte) string {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return string(data)
	}
	return string(out)
}
