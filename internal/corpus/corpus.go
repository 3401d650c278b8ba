// Package corpus reads documents from the watched upload directory.
package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrCorpusAccess is returned when the watched directory or one of its files
// cannot be read.
var ErrCorpusAccess = errors.New("corpus access error")

// Document is the text of one file. Its identity is Filename.
type Document struct {
	Filename string
	Path     string
	Text     string
	Metadata map[string]any
}

// Store lists and loads documents. The orchestrator depends on this
// interface rather than on the filesystem directly.
type Store interface {
	ListFiles(dir string) (map[string]struct{}, error)
	LoadDocuments(ctx context.Context, dir string, names []string, exts []string) ([]Document, error)
}

// FileStore is the filesystem backed Store.
type FileStore struct {
	loaders map[string]Loader
	text    Loader
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLoader registers loader for the given extension (".pdf", ".md", ...).
func WithLoader(ext string, loader Loader) Option {
	return func(s *FileStore) {
		s.loaders[strings.ToLower(ext)] = loader
	}
}

// NewFileStore creates a FileStore with the plain text, markdown and PDF
// loaders registered.
func NewFileStore(opts ...Option) *FileStore {
	md := MarkdownLoader{}
	s := &FileStore{
		loaders: map[string]Loader{
			".md":       md,
			".markdown": md,
			".pdf":      NewPDFLoader(nil),
		},
		text: TextLoader{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListFiles returns the names of regular, non-hidden files directly inside
// dir. An empty directory yields an empty set.
func (s *FileStore) ListFiles(dir string) (map[string]struct{}, error) {
	return ListFiles(dir)
}

// ListFiles is the package level form of FileStore.ListFiles.
func ListFiles(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %w", ErrCorpusAccess, dir, err)
	}

	files := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files[e.Name()] = struct{}{}
	}
	return files, nil
}

// LoadDocuments loads the named files from dir, skipping any that do not
// match exts. Documents are returned sorted by filename. If any file fails
// to load no documents are returned.
func (s *FileStore) LoadDocuments(ctx context.Context, dir string, names []string, exts []string) ([]Document, error) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	var docs []Document
	for _, name := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !MatchesExtension(name, exts) {
			continue
		}

		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrCorpusAccess, name, err)
		}

		text, err := s.loaderFor(name).Load(ctx, path, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: loading %s: %w", ErrCorpusAccess, name, err)
		}

		sum := sha256.Sum256(raw)
		docs = append(docs, Document{
			Filename: name,
			Path:     path,
			Text:     text,
			Metadata: map[string]any{
				"file_name":    name,
				"file_size":    len(raw),
				"content_hash": hex.EncodeToString(sum[:]),
			},
		})
	}
	return docs, nil
}

func (s *FileStore) loaderFor(name string) Loader {
	if l, ok := s.loaders[strings.ToLower(filepath.Ext(name))]; ok {
		return l
	}
	return s.text
}
