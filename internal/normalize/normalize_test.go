package normalize

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/report-generator/constants"
)

func workbook(t *testing.T, sheets ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, name := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		require.NoError(t, f.SetCellValue(name, "A1", "month"))
		require.NoError(t, f.SetCellValue(name, "B1", "views"))
		require.NoError(t, f.SetCellValue(name, "A2", name))
		require.NoError(t, f.SetCellValue(name, "B2", 100+i))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		mediaType string
		want      constants.FileKind
	}{
		{"png", "ga4.png", "image/png", constants.FileKindImage},
		{"image wins over extension", "odd.csv", "image/jpeg", constants.FileKindImage},
		{"csv by type", "export", "text/csv", constants.FileKindCSV},
		{"plain text is csv", "notes.txt", "text/plain", constants.FileKindCSV},
		{"csv by extension", "Users.CSV", "application/octet-stream", constants.FileKindCSV},
		{"json by type", "x", "application/json", constants.FileKindJSON},
		{"json by extension", "events.json", "", constants.FileKindJSON},
		{"pdf by type", "report", "application/pdf", constants.FileKindPDF},
		{"pdf by extension", "report.pdf", "application/octet-stream", constants.FileKindPDF},
		{"xlsx by extension", "book.xlsx", "application/octet-stream", constants.FileKindSpreadsheet},
		{"xls by extension", "book.xls", "", constants.FileKindSpreadsheet},
		{"spreadsheet media type", "book", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", constants.FileKindSpreadsheet},
		{"excel media type", "book", "application/vnd.ms-excel", constants.FileKindSpreadsheet},
		{"unsupported", "slides.key", "application/x-iwork-keynote", constants.FileKindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.file, tt.mediaType))
		})
	}
}

func TestNormalize_PreservesOrderAndWarnsOnUnsupported(t *testing.T) {
	n := New(nil)
	files := []File{
		{Name: "a.png", MediaType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
		{Name: "movie.mp4", MediaType: "video/mp4", Data: []byte("...")},
		{Name: "b.csv", MediaType: "text/csv", Data: []byte("month,views\n1,2")},
		{Name: "c.pdf", MediaType: "application/octet-stream", Data: []byte("%PDF-1.4")},
		{Name: "d.json", MediaType: "application/json", Data: []byte(`{"k":1}`)},
	}

	res, err := n.Normalize(context.Background(), files)
	require.NoError(t, err)

	require.Len(t, res.Fragments, 4)
	assert.Equal(t, []string{"a.png", "b.csv", "c.pdf", "d.json"}, []string{
		res.Fragments[0].Source, res.Fragments[1].Source, res.Fragments[2].Source, res.Fragments[3].Source,
	})

	assert.True(t, res.Fragments[0].Inline)
	assert.Equal(t, "image/png", res.Fragments[0].MediaType)

	assert.Equal(t, "[CSV Data: b.csv]\nmonth,views\n1,2", res.Fragments[1].Text)

	assert.True(t, res.Fragments[2].Inline)
	assert.Equal(t, "application/pdf", res.Fragments[2].MediaType)

	assert.Equal(t, "[JSON Data: d.json]\n{\"k\":1}", res.Fragments[3].Text)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "movie.mp4", res.Warnings[0].Name)
}

func TestNormalize_SpreadsheetReadsFirstThreeSheets(t *testing.T) {
	data := workbook(t, "Jan", "Feb", "Mar", "Apr", "May")
	res, err := New(nil).Normalize(context.Background(), []File{{Name: "monthly.xlsx", Data: data}})
	require.NoError(t, err)
	require.Len(t, res.Fragments, 1)
	require.Empty(t, res.Warnings)

	text := res.Fragments[0].Text
	assert.True(t, strings.HasPrefix(text, "[Excel Data: monthly.xlsx]\n--- Sheet: Jan ---\n"))
	assert.Contains(t, text, "month,views\nJan,100\n\n")

	jan := strings.Index(text, "--- Sheet: Jan ---")
	feb := strings.Index(text, "--- Sheet: Feb ---")
	mar := strings.Index(text, "--- Sheet: Mar ---")
	assert.True(t, jan < feb && feb < mar, "sheets must keep workbook order")
	assert.NotContains(t, text, "Apr")
	assert.NotContains(t, text, "May")
	assert.Equal(t, 3, strings.Count(text, "--- Sheet: "))
}

func TestNormalize_BrokenSpreadsheetBecomesWarning(t *testing.T) {
	res, err := New(nil).Normalize(context.Background(), []File{
		{Name: "legacy.xls", MediaType: "application/vnd.ms-excel", Data: []byte("not a zip")},
		{Name: "ok.csv", MediaType: "text/csv", Data: []byte("a,b")},
	})
	require.NoError(t, err)
	require.Len(t, res.Fragments, 1)
	assert.Equal(t, "ok.csv", res.Fragments[0].Source)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "legacy.xls", res.Warnings[0].Name)
	assert.Contains(t, res.Warnings[0].Reason, "read spreadsheet")
}

func TestNormalize_StripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("月,視聴数")...)
	res, err := New(nil).Normalize(context.Background(), []File{{Name: "ja.csv", MediaType: "text/csv", Data: data}})
	require.NoError(t, err)
	require.Len(t, res.Fragments, 1)
	assert.Equal(t, "[CSV Data: ja.csv]\n月,視聴数", res.Fragments[0].Text)
}

func TestNormalize_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Normalize(ctx, []File{{Name: "a.csv", Data: []byte("x")}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectMediaType(t *testing.T) {
	assert.Equal(t, "text/csv", DetectMediaType("a.csv", "text/csv; charset=utf-8", nil))
	assert.Equal(t, "application/pdf", DetectMediaType("noext", "", []byte("%PDF-1.7\n")))
	assert.Equal(t, "application/json", DetectMediaType("x.json", "", nil))
	assert.Equal(t, "image/png", DetectMediaType("upload.bin", "application/octet-stream", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")))

	assert.Equal(t, "text/plain", DetectMediaType("notes.txt", "", []byte("segment\tusers\tviews\nA\t10\t200\nB\t20\t300\n")))
	assert.Equal(t, "text/plain", DetectMediaType("export.txt", "", []byte("<html><body><table><tr><td>1</td></tr></table></body></html>")))
	assert.Equal(t, "text/csv", DetectMediaType("feed.csv", "application/octet-stream", []byte("<?xml version=\"1.0\"?><rows/>")))
	assert.Equal(t, constants.FileKindCSV, Classify("notes.txt", DetectMediaType("notes.txt", "", []byte("a\tb\n1\t2\n"))))

	xlsx := DetectMediaType("book", "", workbook(t, "S"))
	assert.Equal(t, constants.FileKindSpreadsheet, Classify("book", xlsx), fmt.Sprintf("sniffed %q", xlsx))
}
