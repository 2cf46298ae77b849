package api

import (
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/nssuwan186-dev/fullstack-platform/internal/api/shared"
	"github.com/nssuwan186-dev/fullstack-platform/internal/artifact"
	"github.com/nssuwan186-dev/fullstack-platform/internal/platform/logger"
)

// XLSXContentType is served for workbook artifacts.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ArtifactOpener resolves an artifact path to an open file.
type ArtifactOpener interface {
	Open(name string) (*os.File, fs.FileInfo, error)
}

// FileHandler serves materialized artifacts.
type FileHandler struct {
	artifacts ArtifactOpener
	logger    *slog.Logger
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(artifacts ArtifactOpener, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		artifacts: artifacts,
		logger:    logger.With("component", "file_handler"),
	}
}

// Download handles GET /files/*. Missing, unfinished and out-of-root paths
// all answer 404.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when it is set, leaving the wildcard escaped.
	name := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusNotFound, "File not found")
			return
		}
		name = unescaped
	}

	f, info, err := h.artifacts.Open(name)
	if err != nil {
		if !errors.Is(err, artifact.ErrNotFound) {
			logger.FromContextOrDefault(r.Context(), h.logger).Error("failed to open artifact", "error", err)
		}
		shared.RespondWithError(w, r, http.StatusNotFound, "File not found")
		return
	}
	defer func() { _ = f.Close() }()

	base := path.Base(info.Name())
	if path.Ext(base) == artifact.Extension {
		w.Header().Set("Content-Type", XLSXContentType)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": base}))

	http.ServeContent(w, r, base, info.ModTime(), f)
}
