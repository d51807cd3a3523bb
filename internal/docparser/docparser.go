// Package docparser is the external collaborator that turns a file on disk
// into the plain text the Indexer chunks and embeds. Plain text files are
// read directly; PDFs are converted via the system pdf2ps and ps2ascii
// binaries, exactly as the original implementation shells out to them.
package docparser

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sureshkumar/semdesk/internal/semerr"
)

// textExtensions are read as-is, as are files with no extension. Anything
// else falls back to pdfExtensions or is rejected as unsupported.
var textExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".markdown": {}, ".rst": {},
	".go": {}, ".py": {}, ".js": {}, ".ts": {}, ".rs": {}, ".c": {}, ".h": {}, ".cpp": {}, ".hpp": {},
	".java": {}, ".rb": {}, ".php": {}, ".sh": {}, ".yaml": {}, ".yml": {}, ".json": {}, ".toml": {},
	".html": {}, ".htm": {}, ".css": {}, ".xml": {}, ".sql": {}, ".conf": {}, ".ini": {}, ".env": {},
}

var pdfExtensions = map[string]struct{}{
	".pdf": {},
}

// Default adapts Parse to the single-method Parser interfaces used by
// internal/crawler and internal/retriever.
type Default struct{}

func (Default) Parse(ctx context.Context, path string) (string, error) {
	return Parse(ctx, path)
}

// Parse reads path and returns its plain-text content.
func Parse(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if _, ok := pdfExtensions[ext]; ok {
		return parsePDF(ctx, path)
	}

	if _, ok := textExtensions[ext]; ok || ext == "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", semerr.FileNotFound(path)
			}
			return "", semerr.Wrap(semerr.CodeIO, "read file "+path, err)
		}
		return string(data), nil
	}

	return "", semerr.UnsupportedFileType(path)
}

// parsePDF shells out to pdf2ps | ps2ascii, the same pipeline the original
// implementation's Parser used, and returns the extracted text.
func parsePDF(ctx context.Context, path string) (string, error) {
	ps, err := runPipeline(ctx, "pdf2ps", []string{path, "-"})
	if err != nil {
		return "", semerr.Wrap(semerr.CodeIO, "convert pdf to postscript: "+path, err)
	}

	text, err := runCommandStdin(ctx, "ps2ascii", ps)
	if err != nil {
		return "", semerr.Wrap(semerr.CodeIO, "convert postscript to text: "+path, err)
	}

	return text, nil
}

func runPipeline(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func runCommandStdin(ctx context.Context, name string, stdin []byte) (string, error) {
	cmd := exec.CommandContext(ctx, name, "-")
	cmd.Stdin = bytes.NewReader(stdin)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return out.String(), nil
}
