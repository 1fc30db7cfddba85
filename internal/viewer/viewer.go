// Package viewer is the browser-facing transport of a viewing session: the
// player page, the REST API and the player websocket.
package viewer

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/videomind/internal/session"
)

// MediaChecker reports whether a media handle is live.
type MediaChecker interface {
	Has(handle string) bool
}

// Viewer serves one session to any number of players.
type Viewer struct {
	session *session.Session
	hub     *Hub
	media   MediaChecker
	logger  *zap.Logger
}

// New creates a Viewer. hub must be the session's listener. Media handles
// named by requests are checked against media; nil disables media handles.
func New(sess *session.Session, hub *Hub, media MediaChecker, logger *zap.Logger) *Viewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Viewer{
		session: sess,
		hub:     hub,
		media:   media,
		logger:  logger.Named("viewer"),
	}
}

// knownMedia reports whether handle is empty or live in the media store.
func (v *Viewer) knownMedia(handle string) bool {
	if handle == "" {
		return true
	}
	return v.media != nil && v.media.Has(handle)
}

// RegisterRoutes mounts all viewer routes onto the given router.
func (v *Viewer) RegisterRoutes(r chi.Router) {
	r.Get("/", v.ServeIndex)

	r.Get("/api/mindmap", v.handleMindMap)
	r.Get("/api/mindmap/layout", v.handleLayout)
	r.Get("/api/mindmap/download", v.handleDownload)
	r.Get("/api/mindmap/mermaid", v.handleMermaid)
	r.Get("/api/mindmap/markdown", v.handleMarkdown)
	r.Post("/api/mindmap/upload", v.handleUpload)
	r.Post("/api/mindmap/tier/{tier}", v.handleTier)
	r.Post("/api/mindmap/reset", v.handleReset)

	r.Post("/api/playback/time", v.handleTime)
	r.Post("/api/playback/activate/{index}", v.handleActivate)

	r.Get("/api/summary", v.handleSummary)

	r.Post("/api/generate", v.handleGenerate)
	r.Get("/api/generate", v.handleGenerationStatus)
	r.Delete("/api/generate", v.handleCancelGeneration)
	r.Post("/api/generate/retry", v.handleRetryGeneration)

	r.Get("/ws/player", v.handleWebSocket)
}
