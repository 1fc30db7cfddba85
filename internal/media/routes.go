package media

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the upload and playback endpoints.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Post("/api/media", uploadHandler(store))
	r.Get("/media/{handle}", serveHandler(store))
}

type uploadResponse struct {
	Handle string `json:"handle"`
	URL    string `json:"url"`
}

// uploadHandler accepts a multipart form with the video in the "video" field.
func uploadHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
		file, header, err := r.FormFile("video")
		if err != nil {
			http.Error(w, "video file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		handle, err := store.Acquire(file, header.Filename)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, uploadResponse{Handle: handle, URL: URL(handle)})
	}
}

func serveHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle := chi.URLParam(r, "handle")
		f, err := store.Open(handle)
		if err != nil {
			http.Error(w, "media not found", http.StatusNotFound)
			return
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", ContentType(handle))
		http.ServeContent(w, r, handle, info.ModTime(), f)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
