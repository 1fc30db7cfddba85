// Package lifecycle owns the active mind-map document and the transient media
// handle attached to it. It is the only component that swaps either.
package lifecycle

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/videomind/internal/mindmap"
)

// State is where the active document came from.
type State string

const (
	StateDefault   State = "default"
	StateUploaded  State = "uploaded"
	StateGenerated State = "generated"
)

// Ticket identifies one generation request.
type Ticket string

// Releaser frees a transient media handle.
type Releaser interface {
	Release(handle string) error
}

// Manager holds the active document. It is not safe for concurrent use; the
// session serializes every call.
type Manager struct {
	releaser Releaser
	logger   *zap.Logger

	doc     *mindmap.Document
	state   State
	tier    mindmap.Tier
	media   string
	version uint64

	// pending is the generation request that may still commit. Its media
	// handle is owned here until the request commits or is superseded.
	pending      Ticket
	pendingMedia string
}

// New starts a manager on the built-in document for tier. A nil releaser
// means media handles need no cleanup.
func New(tier mindmap.Tier, releaser Releaser, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	doc, err := mindmap.Builtin(tier)
	if err != nil {
		return nil, fmt.Errorf("loading default document: %w", err)
	}
	return &Manager{
		releaser: releaser,
		logger:   logger,
		doc:      doc,
		state:    StateDefault,
		tier:     tier,
		version:  1,
	}, nil
}

// Active returns the active document. Callers must not modify it.
func (m *Manager) Active() *mindmap.Document { return m.doc }

// State returns the current state.
func (m *Manager) State() State { return m.state }

// Tier returns the most recently selected built-in tier.
func (m *Manager) Tier() mindmap.Tier { return m.tier }

// Media returns the held media handle, or "".
func (m *Manager) Media() string { return m.media }

// Version increments on every document swap.
func (m *Manager) Version() uint64 { return m.version }

// Pending returns the ticket of the generation request that may still commit.
func (m *Manager) Pending() (Ticket, bool) {
	return m.pending, m.pending != ""
}

// Upload validates data and, on success, makes it the active document. On
// failure nothing changes and the rejected media handle is released.
func (m *Manager) Upload(data []byte, media string) error {
	doc, err := mindmap.Validate(data)
	if err != nil {
		m.discard(media)
		return err
	}
	m.commit(doc, StateUploaded, media)
	return nil
}

// SelectTier activates a built-in document.
func (m *Manager) SelectTier(tier mindmap.Tier) error {
	doc, err := mindmap.Builtin(tier)
	if err != nil {
		return err
	}
	m.tier = tier
	m.commit(doc, StateDefault, "")
	return nil
}

// Reset returns to the built-in document for tier and abandons any pending
// generation.
func (m *Manager) Reset(tier mindmap.Tier) error {
	m.supersede("")
	return m.SelectTier(tier)
}

// BeginGeneration supersedes any pending request and returns a new ticket.
// The manager takes ownership of media; a superseded request's handle is
// released unless the new request carries it over.
func (m *Manager) BeginGeneration(media string) Ticket {
	m.supersede(media)
	m.pending = Ticket(uuid.New().String())
	m.pendingMedia = media
	return m.pending
}

// CompleteGeneration commits a generation result if ticket is still pending.
// A superseded ticket yields a stale-result error and changes nothing; its
// media was already settled when it was superseded.
func (m *Manager) CompleteGeneration(ticket Ticket, data []byte, media string) error {
	if ticket == "" || ticket != m.pending {
		return mindmap.NewStaleResultError(string(ticket))
	}
	doc, err := mindmap.Validate(data)
	if err != nil {
		m.supersede(media)
		m.discard(media)
		return err
	}
	m.commit(doc, StateGenerated, media)
	return nil
}

// FailGeneration records a failed generation call. The ticket stays pending
// so the request can be retried.
func (m *Manager) FailGeneration(ticket Ticket, cause error) error {
	if ticket == "" || ticket != m.pending {
		return mindmap.NewStaleResultError(string(ticket))
	}
	return mindmap.NewResourceError(cause)
}

// CancelGeneration abandons the pending request, if any.
func (m *Manager) CancelGeneration() {
	m.supersede("")
}

// Close abandons any pending request and releases the held media handle.
func (m *Manager) Close() error {
	m.supersede("")
	if m.media == "" {
		return nil
	}
	handle := m.media
	m.media = ""
	return m.release(handle)
}

// commit swaps in doc. The previous media handle is released before the new
// document becomes visible, unless the new document reuses it.
func (m *Manager) commit(doc *mindmap.Document, state State, media string) {
	m.supersede(media)
	if m.media != "" && m.media != media {
		if err := m.release(m.media); err != nil {
			m.logger.Warn("releasing media", zap.String("handle", m.media), zap.Error(err))
		}
	}
	m.media = media
	m.doc = doc
	m.state = state
	m.version++
}

// supersede drops the pending request. Its media handle is released unless
// it is keep or still held by the active document.
func (m *Manager) supersede(keep string) {
	if m.pending == "" {
		return
	}
	m.logger.Debug("generation superseded", zap.String("ticket", string(m.pending)))
	media := m.pendingMedia
	m.pending, m.pendingMedia = "", ""
	if media != "" && media != keep {
		m.discard(media)
	}
}

// discard releases a handle offered with a document that was not adopted.
// Handles owned by the active document or the pending request are kept.
func (m *Manager) discard(media string) {
	if media == "" || media == m.media || (m.pending != "" && media == m.pendingMedia) {
		return
	}
	if err := m.release(media); err != nil {
		m.logger.Warn("releasing rejected media", zap.String("handle", media), zap.Error(err))
	}
}

func (m *Manager) release(handle string) error {
	if m.releaser == nil {
		return nil
	}
	return m.releaser.Release(handle)
}
