package web

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/restock/internal/domain"
	"github.com/vbonduro/restock/internal/form"
	"github.com/vbonduro/restock/internal/imagestore"
	"github.com/vbonduro/restock/internal/listview"
	"github.com/vbonduro/restock/internal/service"
	"github.com/vbonduro/restock/internal/vision"
)

// maxUploadSize bounds the whole multipart body: one image plus the text fields.
const maxUploadSize = imagestore.MaxBytes + 1<<20

// allowedImageTypes is the set of MIME types accepted for uploaded images.
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

// readUpload returns the image posted in field, or nil when none was sent.
// The form must already be parsed.
func readUpload(r *http.Request, field string) (*service.Upload, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewValidationError(field, "could not be read")
	}
	defer closeWithLog(file, "upload file", slog.Default())

	data, err := io.ReadAll(io.LimitReader(file, imagestore.MaxBytes+1))
	if err != nil {
		return nil, domain.NewValidationError(field, "could not be read")
	}
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) > imagestore.MaxBytes {
		return nil, domain.NewValidationError(field, imagestore.ErrTooLarge.Error())
	}

	mimeType, ok := allowedImageMIME(data)
	if !ok {
		return nil, domain.NewValidationError(field, "unsupported image format")
	}
	return &service.Upload{Data: data, MIMEType: mimeType}, nil
}

// handleSuggest runs the vision backend on a product photo and answers with a
// create form prefilled from the suggestion.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request, c domain.Collection) {
	if !s.service.CanSuggest() {
		http.Error(w, "photo suggestions are not configured", http.StatusServiceUnavailable)
		return
	}
	if err := parseForm(r); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	upload, err := readUpload(r, "image")
	if err == nil && upload == nil {
		err = domain.NewValidationError("image", "is required")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	suggestion, err := s.service.Suggest(r.Context(), bytes.NewReader(upload.Data), upload.MIMEType)
	switch {
	case errors.Is(err, service.ErrVisionUnavailable):
		http.Error(w, "photo suggestions are not configured", http.StatusServiceUnavailable)
		return
	case errors.Is(err, vision.ErrNoSuggestion):
		s.writeError(w, r, domain.NewValidationError("image", "no product recognised, fill the form by hand"))
		return
	case err != nil:
		s.logger.Error("suggest failed", "collection", c, "error", err)
		trigger(w, &notice{Message: "Photo suggestion failed", Level: "error"}, false)
		http.Error(w, "photo suggestion failed", http.StatusBadGateway)
		return
	}

	items, err := s.service.Items(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctrl := form.NewController(c)
	ctrl.Seed(nil)
	draft := form.Draft{Name: suggestion.Name, Category: suggestion.Category}
	if c.HasSector() {
		draft.Sector = suggestion.Sector
	}
	ctrl.SetDraft(draft)

	if err := s.renderPartial(w, "partials/item_form.html", s.newItemForm(listview.New(c, items), ctrl)); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	reader, mimeType, err := s.service.Image(r.Context(), key)
	if err != nil {
		if !errors.Is(err, imagestore.ErrNotFound) {
			s.logger.Warn("get image failed", "storage_key", key, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "image reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write image failed", "storage_key", key, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
