package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/catalogue"
	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/loader"
)

// handleCreateRead uploads a document into the library and registers it in
// the catalogue with a fresh (zero) completion.
func (s *Server) handleCreateRead(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	kind, err := loader.KindForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	if _, exists := s.catalogue.Get(name); exists {
		jsonError(w, fmt.Sprintf("document already exists: %s", name), http.StatusConflict)
		return
	}

	if err := os.MkdirAll(s.cfg.LibraryPath, 0o755); err != nil {
		jsonError(w, "failed to prepare library", http.StatusInternalServerError)
		return
	}
	dest := filepath.Join(s.cfg.LibraryPath, filename)
	out, err := os.Create(dest)
	if err != nil {
		jsonError(w, "failed to store file", http.StatusInternalServerError)
		return
	}
	n, err := io.Copy(out, io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	out.Close()
	if err != nil || n > s.cfg.MaxUploadBytes {
		os.Remove(dest)
		jsonError(w, fmt.Sprintf("file too large or write error (max %d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	now := time.Now()
	desc := catalogue.Desc{
		Name:         name,
		Kind:         kind,
		Source:       dest,
		Completion:   0,
		CreatedAt:    now,
		LastAccessed: now,
	}
	if err := s.catalogue.Put(desc); err != nil {
		os.Remove(dest)
		jsonError(w, "failed to update catalogue", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"name":   desc.Name,
		"kind":   desc.Kind,
		"source": desc.Source,
	})
}

func (s *Server) handleListReads(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"reads": s.catalogue.List()})
}

func (s *Server) handleDeleteRead(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	desc, ok := s.catalogue.Get(name)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err := s.catalogue.Delete(name); err != nil {
		jsonError(w, "failed to update catalogue", http.StatusInternalServerError)
		return
	}
	if err := os.Remove(desc.Source); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove document file", "source", desc.Source, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
