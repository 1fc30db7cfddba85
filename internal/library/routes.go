package library

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/videomind/internal/mindmap"
)

// maxDocumentBytes bounds a posted save request.
const maxDocumentBytes = 16 << 20

// Viewer is the part of the viewing session the library needs.
type Viewer interface {
	// ActiveDocument returns the active document and where it came from.
	ActiveDocument() (*mindmap.Document, string)
	// LoadSaved validates data and makes it the active document.
	LoadSaved(data []byte) error
}

// RegisterRoutes mounts library endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store, viewer Viewer) {
	r.Get("/api/library", listHandler(store))
	r.Post("/api/library", saveHandler(store, viewer))
	r.Get("/api/library/{id}", getHandler(store))
	r.Delete("/api/library/{id}", deleteHandler(store))
	r.Post("/api/library/{id}/load", loadHandler(store, viewer))
}

type saveRequest struct {
	Title    string          `json:"title"`
	Document json.RawMessage `json:"document,omitempty"`
}

func listHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := store.List(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// saveHandler stores the posted document, or the active one when the body
// carries none.
func saveHandler(store *Store, viewer Viewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveRequest
		if r.ContentLength != 0 {
			err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentBytes)).Decode(&req)
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "document too large", http.StatusRequestEntityTooLarge)
				return
			}
			if err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
		}

		var (
			doc    *mindmap.Document
			source = "uploaded"
			err    error
		)
		if len(req.Document) > 0 && string(req.Document) != "null" {
			doc, err = mindmap.Validate(req.Document)
			if err != nil {
				writeError(w, err)
				return
			}
		} else {
			doc, source = viewer.ActiveDocument()
		}

		entry, err := store.Save(r.Context(), doc, req.Title, source)
		if entry == nil {
			writeError(w, err)
			return
		}
		if err != nil {
			w.Header().Set("X-Index-Error", err.Error())
		}
		entry.Document = nil
		writeJSON(w, http.StatusCreated, entry)
	}
}

func getHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func deleteHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func loadHandler(store *Store, viewer Viewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := viewer.LoadSaved(entry.Document); err != nil {
			writeError(w, err)
			return
		}
		entry.Document = nil
		writeJSON(w, http.StatusOK, entry)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var mErr *mindmap.Error
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "mind map not found", http.StatusNotFound)
	case errors.As(err, &mErr):
		writeJSON(w, mErr.Status(), map[string]any{"error": mErr.Message, "kind": mErr.Kind, "node": mErr.Node})
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
