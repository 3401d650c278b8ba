package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// multipartSlack leaves room for multipart headers and boundaries on top of
// the file size limit.
const multipartSlack = 1 << 20

type uploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartSlack)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File size exceeds the limit.")
			return
		}
		writeError(w, http.StatusBadRequest, "a multipart file field named \"file\" is required")
		return
	}
	defer file.Close()

	if !s.allowedType(header.Header.Get("Content-Type")) {
		writeError(w, http.StatusBadRequest, "Invalid file type.")
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "File size exceeds the limit.")
		return
	}

	name, ok := uploadName(header.Filename)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	if err := s.store(name, file); err != nil {
		s.logger.Error("uploading file", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, "An error occurred while uploading the file.")
		return
	}

	s.logger.Info("file uploaded", "file", name, "dir", s.cfg.UploadDir)
	writeJSON(w, http.StatusCreated, uploadResponse{Message: "File uploaded successfully", Filename: name})
}

func (s *Server) allowedType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return slices.Contains(s.cfg.AllowedUploadTypes, mediaType)
}

// uploadName reduces a client-supplied name to a plain, visible base name.
func uploadName(name string) (string, bool) {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." || strings.HasPrefix(name, ".") {
		return "", false
	}
	return name, true
}

// store writes src into the upload directory. The data goes to a hidden
// temporary file first so a concurrent index never sees a partial document.
func (s *Server) store(name string, src io.Reader) error {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("creating upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.cfg.UploadDir, ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	return os.Rename(tmp.Name(), filepath.Join(s.cfg.UploadDir, name))
}
