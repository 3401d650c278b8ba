package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

type mockRunner struct {
	output []byte
	err    error
	args   []string
}

func (m *mockRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	m.args = args
	return m.output, m.err
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.pdf", "x")
	writeFile(t, dir, "b.txt", "y")
	writeFile(t, dir, ".hidden", "z")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	files, err := ListFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Contains(t, files, "a.pdf")
	assert.Contains(t, files, "b.txt")
}

func TestListFilesEmptyDir(t *testing.T) {
	files, err := ListFiles(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestListFilesMissingDir(t *testing.T) {
	_, err := ListFiles(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorpusAccess)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDocumentsFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "z.txt", "zeta")
	writeFile(t, dir, "a.txt", "alpha")
	writeFile(t, dir, "skip.csv", "ignored")

	s := NewFileStore()
	docs, err := s.LoadDocuments(context.Background(), dir, []string{"z.txt", "skip.csv", "a.txt"}, []string{".txt"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a.txt", docs[0].Filename)
	assert.Equal(t, "alpha", docs[0].Text)
	assert.Equal(t, "z.txt", docs[1].Filename)
	assert.NotEmpty(t, docs[0].Metadata["content_hash"])
}

func TestLoadDocumentsOnlyNamedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "old.txt", "old")
	writeFile(t, dir, "new.txt", "new")

	docs, err := NewFileStore().LoadDocuments(context.Background(), dir, []string{"new.txt"}, []string{".txt"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "new.txt", docs[0].Filename)
}

func TestLoadDocumentsMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.txt", "fine")

	docs, err := NewFileStore().LoadDocuments(context.Background(), dir, []string{"ok.txt", "gone.txt"}, []string{".txt"})
	assert.ErrorIs(t, err, ErrCorpusAccess)
	assert.Nil(t, docs)
}

func TestLoadDocumentsMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "guide.md", "# Careers\n\nSome **bold** advice and a [link](http://x).\n\n```\ncode here\n```\n")

	docs, err := NewFileStore().LoadDocuments(context.Background(), dir, []string{"guide.md"}, []string{".md"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Careers\nSome bold advice and a link.\ncode here", docs[0].Text)
}

func TestLoadDocumentsPDFWithRunner(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cv.pdf", "%PDF-1.4")

	runner := &mockRunner{output: []byte("  Extracted resume text \n")}
	pdf := NewPDFLoader(runner)
	pdf.lookPath = func(string) (string, error) { return "/usr/bin/pdftotext", nil }

	s := NewFileStore(WithLoader(".pdf", pdf))
	docs, err := s.LoadDocuments(context.Background(), dir, []string{"cv.pdf"}, []string{".pdf"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Extracted resume text", docs[0].Text)
	assert.Equal(t, filepath.Join(dir, "cv.pdf"), runner.args[len(runner.args)-2])
}

func TestPDFLoaderRunnerError(t *testing.T) {
	pdf := NewPDFLoader(&mockRunner{err: errors.New("pdftotext crashed")})
	pdf.lookPath = func(string) (string, error) { return "/usr/bin/pdftotext", nil }

	_, err := pdf.Load(context.Background(), "x.pdf", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestPDFLoaderToolMissing(t *testing.T) {
	pdf := NewPDFLoader(&mockRunner{})
	pdf.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	_, err := pdf.Load(context.Background(), "x.pdf", nil)
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
	assert.Contains(t, InstallInstructions(), "poppler")
}

func TestMatchesExtension(t *testing.T) {
	tests := []struct {
		name string
		exts []string
		want bool
	}{
		{"cv.pdf", []string{".pdf"}, true},
		{"CV.PDF", []string{".pdf"}, true},
		{"notes.txt", []string{".pdf"}, false},
		{"notes.txt", []string{".pdf", ".txt"}, true},
		{"report-2024.txt", []string{"report-*.txt"}, true},
		{"summary.txt", []string{"report-*.txt"}, false},
		{"anything", nil, true},
		{"file.md", []string{" "}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesExtension(tt.name, tt.exts), "%s %v", tt.name, tt.exts)
	}
}
