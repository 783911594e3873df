package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a_sessions.csv"), "date,sessions\n2026-09-01,10\n")
	writeFile(t, filepath.Join(dir, "b_ranking.json"), `{"pages":[]}`)
	writeFile(t, filepath.Join(dir, "c_copy.csv"), "date,sessions\n2026-09-01,10\n")
	writeFile(t, filepath.Join(dir, "notes.docx"), "not accepted")
	writeFile(t, filepath.Join(dir, ".hidden", "secret.csv"), "x\n")
	writeFile(t, filepath.Join(dir, "sub", "chart.PNG"), "\x89PNG")

	extra := filepath.Join(t.TempDir(), "extra.pdf")
	writeFile(t, extra, "%PDF-1.7")

	res, err := LoadPaths(context.Background(), []string{dir, extra}, Options{SkipHidden: true})
	require.NoError(t, err)

	var names []string
	for _, f := range res.Files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"a_sessions.csv", "b_ranking.json", "chart.PNG", "extra.pdf"}, names)
	assert.Equal(t, "text/csv", res.Files[0].MediaType)
	assert.Equal(t, "image/png", res.Files[2].MediaType)
	assert.Equal(t, "application/pdf", res.Files[3].MediaType)
	assert.Len(t, res.Hashes, 4)

	assert.Equal(t, Stats{Scanned: 6, Loaded: 4, Skipped: 1, Duplicates: 1}, res.Stats)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, filepath.Join(dir, "notes.docx"), res.Skipped[0].Path)
}

func TestLoadPaths_IncludesHiddenWhenAsked(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cache", "data.csv"), "x\n")

	res, err := LoadPaths(context.Background(), []string{dir}, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Files, 1)
}

func TestLoadPaths_MaxFileBytes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "big.csv"), "0123456789")
	writeFile(t, filepath.Join(dir, "small.csv"), "01")

	res, err := LoadPaths(context.Background(), []string{dir}, Options{MaxFileBytes: 5})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "small.csv", res.Files[0].Name)
	assert.Equal(t, uint32(1), res.Stats.Skipped)
}

func TestLoadPaths_Errors(t *testing.T) {
	_, err := LoadPaths(context.Background(), nil, Options{})
	assert.Error(t, err)

	_, err = LoadPaths(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = LoadPaths(ctx, []string{t.TempDir()}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMediaTypeByExt(t *testing.T) {
	assert.Equal(t, "application/json", MediaTypeByExt(".JSON"))
	assert.Equal(t, "", MediaTypeByExt("docx"))
	assert.True(t, IsHidden("/tmp/.git"))
	assert.False(t, IsHidden("/tmp/data"))
}
