package docparser_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sureshkumar/semdesk/internal/docparser"
	"github.com/sureshkumar/semdesk/internal/semerr"
)

func TestParseReadsPlainTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello there"), 0o644))

	text, err := docparser.Parse(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "hello there", text)
}

func TestParseMissingFileReturnsFileNotFound(t *testing.T) {
	_, err := docparser.Parse(context.Background(), "/does/not/exist.txt")
	require.Error(t, err)
	require.Equal(t, semerr.CodeFileNotFound, semerr.GetCode(err))
}

func TestParseUnsupportedExtensionReturnsUnsupportedFileType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0o644))

	_, err := docparser.Parse(context.Background(), path)
	require.Error(t, err)
	require.Equal(t, semerr.CodeUnsupportedFileType, semerr.GetCode(err))
}

func TestCheckPDFToolsNeverFails(t *testing.T) {
	results := docparser.CheckPDFTools()
	require.Len(t, results, 2)
	for _, r := range results {
		require.NotEqual(t, "", r.Name)
	}
}
