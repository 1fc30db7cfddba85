// Package session is the viewer's event loop. It owns the lifecycle manager,
// the layout cache and the interaction controller, and serializes every
// playback event and document swap behind one lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/videomind/internal/audit"
	"github.com/ziadkadry99/videomind/internal/controller"
	"github.com/ziadkadry99/videomind/internal/generate"
	"github.com/ziadkadry99/videomind/internal/layout"
	"github.com/ziadkadry99/videomind/internal/lifecycle"
	"github.com/ziadkadry99/videomind/internal/media"
	"github.com/ziadkadry99/videomind/internal/metrics"
	"github.com/ziadkadry99/videomind/internal/mindmap"
	"github.com/ziadkadry99/videomind/internal/summary"
)

const defaultGenerationTimeout = 2 * time.Minute

// ErrNoGenerator is returned when generation is requested without a provider.
var ErrNoGenerator = errors.New("no generation provider configured")

// Generator produces raw document bytes for a request.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (generate.Result, error)
}

// Config wires a session. Only Tier is required.
type Config struct {
	Tier              mindmap.Tier
	DefaultVideoURL   string
	GenerationTimeout time.Duration

	Releaser  lifecycle.Releaser
	Generator Generator
	History   *audit.Store
	Metrics   *metrics.Collector
	Listener  Listener
	Logger    *zap.Logger
}

// Snapshot is a consistent view of the session at one instant.
type Snapshot struct {
	Version    uint64            `json:"version"`
	State      lifecycle.State   `json:"state"`
	Tier       mindmap.Tier      `json:"tier"`
	NodeCount  int               `json:"node_count"`
	VideoURL   string            `json:"video_url"`
	Media      string            `json:"media,omitempty"`
	Highlight  int               `json:"highlight"`
	Caption    int               `json:"caption"`
	Time       float64           `json:"time"`
	Generating bool              `json:"generating"`
	Document   *mindmap.Document `json:"document"`
}

// Session serializes all events against the active document.
type Session struct {
	mu sync.Mutex

	manager *lifecycle.Manager
	layouts layout.Cache
	ctrl    *controller.Controller

	generator Generator
	history   *audit.Store
	metrics   *metrics.Collector
	listener  Listener
	logger    *zap.Logger

	defaultVideoURL string
	genTimeout      time.Duration

	gen      GenerationStatus
	genReq   generate.Request
	cancel   context.CancelFunc
	download *download
	closed   bool
	wg       sync.WaitGroup
}

type download struct {
	filename string
	data     []byte
}

// New creates a session on the built-in document for cfg.Tier.
func New(cfg Config) (*Session, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Listener == nil {
		cfg.Listener = nopListener{}
	}
	if cfg.Tier == "" {
		cfg.Tier = mindmap.TierMedium
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaultGenerationTimeout
	}

	s := &Session{
		generator:       cfg.Generator,
		history:         cfg.History,
		metrics:         cfg.Metrics,
		listener:        cfg.Listener,
		logger:          cfg.Logger.Named("session"),
		defaultVideoURL: cfg.DefaultVideoURL,
		genTimeout:      cfg.GenerationTimeout,
		gen:             GenerationStatus{State: GenerationIdle},
	}

	var releaser lifecycle.Releaser
	if cfg.Releaser != nil {
		releaser = &trackedReleaser{inner: cfg.Releaser, s: s}
	}
	manager, err := lifecycle.New(cfg.Tier, releaser, s.logger)
	if err != nil {
		return nil, fmt.Errorf("creating lifecycle manager: %w", err)
	}
	s.manager = manager
	hooks := &hooks{s: s}
	s.ctrl = controller.New(manager, hooks, hooks, hooks)
	s.refreshLayout()
	return s, nil
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Attach calls fn with a snapshot while holding the session lock, so no
// event is published between the snapshot and fn returning. fn must not call
// back into the session.
func (s *Session) Attach(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.snapshot())
}

func (s *Session) snapshot() Snapshot {
	doc := s.manager.Active()
	return Snapshot{
		Version:    s.manager.Version(),
		State:      s.manager.State(),
		Tier:       s.manager.Tier(),
		NodeCount:  len(doc.Nodes),
		VideoURL:   s.videoURL(),
		Media:      s.manager.Media(),
		Highlight:  s.ctrl.Highlight(),
		Caption:    s.ctrl.Caption(),
		Time:       s.ctrl.LastTime(),
		Generating: s.gen.State == GenerationRunning,
		Document:   doc,
	}
}

// ActiveDocument returns the active document and its source state.
func (s *Session) ActiveDocument() (*mindmap.Document, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.Active(), string(s.manager.State())
}

// Layout returns a snapshot and the graph layout of the same active
// document, taken under one lock.
func (s *Session) Layout() (Snapshot, *layout.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), s.refreshLayout()
}

// Panel returns the summary panel for the current highlight.
func (s *Session) Panel() summary.Panel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return summary.Build(s.manager.Active(), s.ctrl.Highlight())
}

// TimeUpdate feeds a playback time to the controller. It returns the
// resulting snapshot and whether the highlight changed.
func (s *Session) TimeUpdate(t float64) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.TimeUpdates.Inc()
	}
	changed := s.ctrl.OnTimeUpdate(t)
	return s.snapshot(), changed
}

// Activate seeks the video to the start of node i and returns the seek time.
func (s *Session) Activate(i int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctrl.OnNodeActivate(i); err != nil {
		return 0, err
	}
	return s.manager.Active().Nodes[i].Timestamp.Start, nil
}

// Download returns the download filename and the serialized active document.
func (s *Session) Download() (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.download = nil
	if err := s.ctrl.OnDownloadRequested(); err != nil {
		return "", nil, err
	}
	d := s.download
	s.download = nil
	if d == nil {
		return "", nil, fmt.Errorf("download produced no file")
	}
	if s.metrics != nil {
		s.metrics.Downloads.Inc()
	}
	return d.filename, d.data, nil
}

// Upload validates data and makes it the active document. media is an
// optional handle from the media store for the accompanying video.
func (s *Session) Upload(ctx context.Context, data []byte, media string) error {
	return s.adopt(ctx, audit.ActionUpload, data, media)
}

// LoadSaved activates a document from the library. It behaves as an upload.
func (s *Session) LoadSaved(data []byte) error {
	return s.adopt(context.Background(), audit.ActionLibraryLoad, data, "")
}

func (s *Session) adopt(ctx context.Context, action audit.Action, data []byte, media string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.manager.Upload(data, media); err != nil {
		s.record(ctx, audit.Entry{Action: action, Outcome: audit.OutcomeRejected, Media: media}, err)
		return err
	}
	s.afterSwap(ctx, action)
	return nil
}

// SelectTier activates the built-in document for tier.
func (s *Session) SelectTier(ctx context.Context, tier mindmap.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.manager.SelectTier(tier); err != nil {
		return err
	}
	s.afterSwap(ctx, audit.ActionSelectTier)
	return nil
}

// Reset returns to the built-in document of the selected tier.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.manager.Reset(s.manager.Tier()); err != nil {
		return err
	}
	s.afterSwap(ctx, audit.ActionReset)
	return nil
}

// Close stops any running generation and releases the held media.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.manager.CancelGeneration()
	s.stopRunning()
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.Close()
}

// afterSwap runs once the manager committed a new document: layout, then the
// document event, then re-resolution with its highlight notification.
func (s *Session) afterSwap(ctx context.Context, action audit.Action) {
	s.abandonGeneration()
	s.refreshLayout()
	s.publishDocument()
	s.ctrl.Reload()
	s.record(ctx, audit.Entry{Action: action, Outcome: audit.OutcomeCommitted, Media: s.manager.Media()}, nil)
}

func (s *Session) refreshLayout() *layout.Result {
	doc := s.manager.Active()
	before := s.layouts.Computations()
	result := s.layouts.For(doc)
	if s.metrics != nil {
		if s.layouts.Computations() > before {
			s.metrics.LayoutComputations.Inc()
		}
		s.metrics.ActiveNodes.Set(float64(len(doc.Nodes)))
	}
	return result
}

func (s *Session) publishDocument() {
	s.listener.Publish(Event{
		Type:     EventDocument,
		Index:    -1,
		Version:  s.manager.Version(),
		State:    string(s.manager.State()),
		VideoURL: s.videoURL(),
	})
}

// videoURL prefers the held media, then the document's URL, then the default.
func (s *Session) videoURL() string {
	if h := s.manager.Media(); h != "" {
		return media.URL(h)
	}
	if u := s.manager.Active().VideoURL; u != "" {
		return u
	}
	return s.defaultVideoURL
}

// record writes a history entry and counts the transition. Failures to write
// history are logged, never returned.
func (s *Session) record(ctx context.Context, entry audit.Entry, cause error) {
	doc := s.manager.Active()
	entry.State = string(s.manager.State())
	entry.Tier = string(s.manager.Tier())
	entry.Version = s.manager.Version()
	entry.RootTopic = doc.RootTopic
	entry.NodeCount = len(doc.Nodes)
	if cause != nil {
		entry.Detail = cause.Error()
		entry.ErrorKind = string(mindmap.KindOf(cause))
	}

	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(entry.Action), string(entry.Outcome)).Inc()
	}
	fields := []zap.Field{
		zap.String("action", string(entry.Action)),
		zap.String("outcome", string(entry.Outcome)),
		zap.Uint64("version", entry.Version),
	}
	switch entry.Outcome {
	case audit.OutcomeCommitted:
		s.logger.Info("document transition", fields...)
	case audit.OutcomeDiscarded:
		s.logger.Debug("document transition", append(fields, zap.Error(cause))...)
	default:
		s.logger.Warn("document transition", append(fields, zap.Error(cause))...)
	}

	if s.history == nil {
		return
	}
	if ctx == nil || ctx.Err() != nil {
		ctx = context.Background()
	}
	if err := s.history.Log(ctx, entry); err != nil {
		s.logger.Error("writing history", zap.Error(err))
	}
}

// hooks receives the controller's notifications. They fire only while the
// session lock is held.
type hooks struct {
	s *Session
}

func (h *hooks) HighlightChanged(index int) {
	if h.s.metrics != nil {
		h.s.metrics.HighlightChanges.Inc()
	}
	e := Event{Type: EventHighlight, Index: index, Version: h.s.manager.Version()}
	if doc := h.s.manager.Active(); index >= 0 && index < len(doc.Nodes) {
		e.Text = doc.Nodes[index].Topic
	}
	h.s.listener.Publish(e)
}

func (h *hooks) CaptionChanged(index int) {
	e := Event{Type: EventCaption, Index: index, Version: h.s.manager.Version()}
	if doc := h.s.manager.Active(); index >= 0 && index < len(doc.Transcription) {
		e.Text = doc.Transcription[index].Text
	}
	h.s.listener.Publish(e)
}

func (h *hooks) SeekTo(seconds float64) {
	if h.s.metrics != nil {
		h.s.metrics.Seeks.Inc()
	}
	h.s.listener.Publish(Event{Type: EventSeek, Index: -1, Time: seconds, Version: h.s.manager.Version()})
}

func (h *hooks) Save(filename string, data []byte) error {
	h.s.download = &download{filename: filename, data: data}
	return nil
}

// trackedReleaser counts and records every media release.
type trackedReleaser struct {
	inner lifecycle.Releaser
	s     *Session
}

func (r *trackedReleaser) Release(handle string) error {
	err := r.inner.Release(handle)
	if r.s.metrics != nil && err == nil {
		r.s.metrics.MediaReleases.Inc()
	}
	if r.s.history != nil {
		entry := audit.Entry{
			Action:  audit.ActionMediaRelease,
			Outcome: audit.OutcomeCommitted,
			Media:   handle,
			Version: r.s.manager.Version(),
		}
		if err != nil {
			entry.Outcome = audit.OutcomeFailed
			entry.Detail = err.Error()
		}
		if logErr := r.s.history.Log(context.Background(), entry); logErr != nil {
			r.s.logger.Error("writing history", zap.Error(logErr))
		}
	}
	return err
}
