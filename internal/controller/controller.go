// Package controller turns playback and user events into highlight, caption
// and seek notifications for the active mind map.
package controller

import (
	"fmt"
	"math"

	"github.com/ziadkadry99/videomind/internal/mindmap"
)

// Source supplies the active document. The lifecycle manager implements it.
type Source interface {
	Active() *mindmap.Document
}

// Seeker asks the video collaborator to jump to a position.
type Seeker interface {
	SeekTo(seconds float64)
}

// Notifier receives highlight and caption changes. An index of -1 means none.
type Notifier interface {
	HighlightChanged(index int)
	CaptionChanged(index int)
}

// Saver hands a downloadable file to the user.
type Saver interface {
	Save(filename string, data []byte) error
}

// Controller tracks the highlighted node and caption for the active document.
// It is not safe for concurrent use; callers serialize events.
type Controller struct {
	src    Source
	seeker Seeker
	notify Notifier
	saver  Saver

	highlight int
	caption   int
	lastTime  float64
}

// New creates a controller and resolves the initial state at time zero
// without emitting notifications.
func New(src Source, seeker Seeker, notify Notifier, saver Saver) *Controller {
	c := &Controller{src: src, seeker: seeker, notify: notify, saver: saver}
	doc := src.Active()
	c.highlight = resolveIndex(mindmap.ResolveActive(doc, 0))
	c.caption = resolveIndex(mindmap.ResolveCaption(doc, 0))
	return c
}

// OnTimeUpdate resolves the active node for t. It reports whether the
// highlight changed, and notifies only on change. Non-finite times are ignored.
func (c *Controller) OnTimeUpdate(t float64) bool {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return false
	}
	c.lastTime = t
	doc := c.src.Active()

	if line := resolveIndex(mindmap.ResolveCaption(doc, t)); line != c.caption {
		c.caption = line
		c.notify.CaptionChanged(line)
	}

	idx := resolveIndex(mindmap.ResolveActive(doc, t))
	if idx == c.highlight {
		return false
	}
	c.highlight = idx
	c.notify.HighlightChanged(idx)
	return true
}

// OnNodeActivate seeks to the start of node i.
func (c *Controller) OnNodeActivate(i int) error {
	doc := c.src.Active()
	if doc == nil || i < 0 || i >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", i)
	}
	c.seeker.SeekTo(doc.Nodes[i].Timestamp.Start)
	return nil
}

// OnDownloadRequested serializes the active document and hands it to the saver.
func (c *Controller) OnDownloadRequested() error {
	doc := c.src.Active()
	data, err := mindmap.Serialize(doc)
	if err != nil {
		return fmt.Errorf("serializing mind map: %w", err)
	}
	if err := c.saver.Save(mindmap.DownloadFilename(doc.RootTopic), data); err != nil {
		return fmt.Errorf("saving mind map: %w", err)
	}
	return nil
}

// Reload is called after the active document was swapped. It re-resolves at
// the last known playback time and always emits one highlight notification.
func (c *Controller) Reload() {
	doc := c.src.Active()
	c.highlight = resolveIndex(mindmap.ResolveActive(doc, c.lastTime))
	c.caption = resolveIndex(mindmap.ResolveCaption(doc, c.lastTime))
	c.notify.HighlightChanged(c.highlight)
	c.notify.CaptionChanged(c.caption)
}

// Highlight returns the highlighted node index, or -1.
func (c *Controller) Highlight() int { return c.highlight }

// Caption returns the active transcript line index, or -1.
func (c *Controller) Caption() int { return c.caption }

// LastTime returns the most recent playback time seen.
func (c *Controller) LastTime() float64 { return c.lastTime }

func resolveIndex(i int, ok bool) int {
	if !ok {
		return -1
	}
	return i
}
