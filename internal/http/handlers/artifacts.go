package handlers

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// Artifact streams a stored pipeline artifact. Only used when the store has
// no directly fetchable URLs, so intermediate files stay reachable for the
// external services that consume them.
func (a *App) Artifact(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		a.error(w, http.StatusBadRequest, "artifact key required")
		return
	}
	rc, err := a.Store.Open(r.Context(), key)
	if err != nil {
		a.error(w, http.StatusNotFound, "artifact not found")
		return
	}
	defer rc.Close()
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}
