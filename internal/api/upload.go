package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/unigenai/unigen/internal/identity"
	"github.com/unigenai/unigen/internal/rag"
)

// Upload handles POST /api/upload and POST /upload-pdf. The multipart
// "file" (.txt, .md or .pdf) is stored in the upload directory and
// ingested into the retrieval corpus.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.ingester == nil {
		Error(w, http.StatusServiceUnavailable, "retrieval is disabled")
		return
	}

	if r.ContentLength > h.uploadMaxBytes {
		Error(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Error(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) || !rag.Supported(name) {
		Error(w, http.StatusBadRequest, "Unsupported file type")
		return
	}

	path, err := h.saveUpload(name, file)
	if err != nil {
		h.logger.Error("Failed to save upload", "file", name, "error", err)
		Error(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	chunks, err := h.ingester.IngestFile(r.Context(), path)
	if errors.Is(err, rag.ErrUnsupportedType) {
		Error(w, http.StatusBadRequest, "Unsupported file type")
		return
	}
	if errors.Is(err, rag.ErrUnreadable) {
		Error(w, http.StatusBadRequest, "Could not read document")
		return
	}
	if err != nil {
		h.logger.Error("Failed to ingest upload", "file", name, "error", err)
		Error(w, http.StatusBadGateway, "failed to index file")
		return
	}

	h.logger.Info("Document uploaded", "user_id", identity.UserIDFromContext(r.Context()), "file", name, "chunks", chunks)
	JSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%s uploaded successfully", name),
		"chunks":  chunks,
	})
}

func (h *Handler) saveUpload(name string, src io.Reader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	path := filepath.Join(h.uploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return path, nil
}

// Session handles GET /api/session and reports the caller's interview.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if h.sessions == nil || userID == "" {
		JSON(w, http.StatusOK, map[string]bool{"active": false})
		return
	}
	sess, ok := h.sessions.Snapshot(userID)
	if !ok {
		JSON(w, http.StatusOK, map[string]bool{"active": false})
		return
	}
	JSON(w, http.StatusOK, sess)
}
