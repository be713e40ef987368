package web

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vbonduro/homeinspect/internal/service"
)

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// handlePutObject stores the raw request body under the path. The path is
// checked before the body is read. The declared Content-Type is ignored; the
// type is sniffed from the bytes.
func (s *Server) handlePutObject(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	key := r.PathValue("path")
	if _, err := s.images.Authorize(r.Context(), user.ID, key); err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.images.MaxBytes()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mimeType, ok := allowedImageMIME(data)
	if !ok {
		s.writeError(w, r, service.ErrUnsupportedType)
		return
	}

	img, err := s.images.Put(r.Context(), user.ID, key, mimeType, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, img, s.logger)
}

func (s *Server) handleDeleteObject(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.images.Delete(r.Context(), user.ID, r.PathValue("path")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListObjects lists the images under prefix, which must name exactly
// one inspection: inspections/<inspection_id>/.
func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	inspectionID, err := inspectionFromPrefix(r.URL.Query().Get("prefix"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	images, err := s.images.List(r.Context(), user.ID, inspectionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, images, s.logger)
}

func inspectionFromPrefix(prefix string) (string, error) {
	rest, ok := strings.CutPrefix(prefix, "inspections/")
	if !ok {
		return "", fmt.Errorf("%w: prefix must be inspections/<id>/", errBadRequest)
	}
	id := strings.TrimSuffix(rest, "/")
	if id == "" || strings.Contains(id, "/") || id == "." || id == ".." {
		return "", fmt.Errorf("%w: prefix must be inspections/<id>/", errBadRequest)
	}
	return id, nil
}

func (s *Server) handleObjectURL(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	u, err := s.images.URL(r.Context(), user.ID, r.PathValue("path"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": u}, s.logger)
}

// handleGetFile serves stored images publicly for backends without their own
// URLs.
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("path")
	reader, mimeType, err := s.images.Open(r.Context(), key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "key", key, "error", err)
	}
}
