package viewer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/videomind/internal/diagrams"
	"github.com/ziadkadry99/videomind/internal/generate"
	"github.com/ziadkadry99/videomind/internal/layout"
	"github.com/ziadkadry99/videomind/internal/lifecycle"
	"github.com/ziadkadry99/videomind/internal/mindmap"
	"github.com/ziadkadry99/videomind/internal/session"
	"github.com/ziadkadry99/videomind/internal/summary"
)

// maxDocumentBytes bounds uploaded mind-map JSON.
const maxDocumentBytes = 16 << 20

// layoutResponse is the JSON response for the layout endpoint.
type layoutResponse struct {
	Version   uint64         `json:"version"`
	Highlight int            `json:"highlight"`
	Layout    *layout.Result `json:"layout"`
}

type timeRequest struct {
	Time *float64 `json:"time"`
}

type timeResponse struct {
	Changed   bool `json:"changed"`
	Highlight int  `json:"highlight"`
	Caption   int  `json:"caption"`
}

type generateResponse struct {
	Ticket lifecycle.Ticket `json:"ticket"`
}

func (v *Viewer) handleMindMap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, v.session.Snapshot())
}

func (v *Viewer) handleLayout(w http.ResponseWriter, r *http.Request) {
	snap, l := v.session.Layout()
	writeJSON(w, http.StatusOK, layoutResponse{
		Version:   snap.Version,
		Highlight: snap.Highlight,
		Layout:    l,
	})
}

func (v *Viewer) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename, data, err := v.session.Download()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (v *Viewer) handleMermaid(w http.ResponseWriter, r *http.Request) {
	kind := diagrams.Kind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = diagrams.KindMindMap
	}
	doc, _ := v.session.ActiveDocument()
	out, err := diagrams.Render(kind, doc)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, out)
}

func (v *Viewer) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	doc, _ := v.session.ActiveDocument()
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write(summary.Markdown(doc, diagrams.MindMap(doc)))
}

// handleUpload adopts the JSON body as the active document. The optional
// media query parameter names a video previously stored via /api/media.
func (v *Viewer) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "document too large"})
		return
	}
	handle := r.URL.Query().Get("media")
	if !v.knownMedia(handle) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown media handle"})
		return
	}
	if err := v.session.Upload(r.Context(), data, handle); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.session.Snapshot())
}

func (v *Viewer) handleTier(w http.ResponseWriter, r *http.Request) {
	tier, err := mindmap.ParseTier(chi.URLParam(r, "tier"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := v.session.SelectTier(r.Context(), tier); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.session.Snapshot())
}

func (v *Viewer) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := v.session.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.session.Snapshot())
}

func (v *Viewer) handleTime(w http.ResponseWriter, r *http.Request) {
	var req timeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Time == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "time is required"})
		return
	}
	if math.IsNaN(*req.Time) || math.IsInf(*req.Time, 0) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "time must be finite"})
		return
	}
	snap, changed := v.session.TimeUpdate(*req.Time)
	writeJSON(w, http.StatusOK, timeResponse{Changed: changed, Highlight: snap.Highlight, Caption: snap.Caption})
}

func (v *Viewer) handleActivate(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "index must be an integer"})
		return
	}
	seek, err := v.session.Activate(index)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"index": index, "seek": seek})
}

func (v *Viewer) handleSummary(w http.ResponseWriter, r *http.Request) {
	panel := v.session.Panel()
	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, panel)
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write(summary.PanelMarkdown(panel))
	case "html":
		html, err := summary.RenderHTML(summary.PanelMarkdown(panel))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, html)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be json, markdown or html"})
	}
}

func (v *Viewer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generate.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !v.knownMedia(req.Media) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown media handle"})
		return
	}
	ticket, err := v.session.StartGeneration(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, generateResponse{Ticket: ticket})
}

func (v *Viewer) handleGenerationStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, v.session.GenerationStatus())
}

func (v *Viewer) handleCancelGeneration(w http.ResponseWriter, r *http.Request) {
	v.session.CancelGeneration(r.Context())
	writeJSON(w, http.StatusOK, v.session.GenerationStatus())
}

func (v *Viewer) handleRetryGeneration(w http.ResponseWriter, r *http.Request) {
	ticket, err := v.session.RetryGeneration()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, generateResponse{Ticket: ticket})
}

// writeError maps session and document errors to HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	var mErr *mindmap.Error
	switch {
	case errors.As(err, &mErr):
		writeJSON(w, mErr.Status(), map[string]any{"error": mErr.Message, "kind": mErr.Kind, "node": mErr.Node})
	case errors.Is(err, generate.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrNoGenerator):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrNotRetryable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
