package session

// EventType names a message pushed to viewer clients.
type EventType string

const (
	EventHighlight EventType = "highlight"
	EventCaption   EventType = "caption"
	EventSeek      EventType = "seek"
	EventDocument  EventType = "document"
	EventError     EventType = "error"
)

// Event is a notification for every connected viewer. Index is -1 when no
// node or caption line is active.
type Event struct {
	Type     EventType `json:"type"`
	Index    int       `json:"index"`
	Time     float64   `json:"time,omitempty"`
	Text     string    `json:"text,omitempty"`
	Version  uint64    `json:"version,omitempty"`
	State    string    `json:"state,omitempty"`
	VideoURL string    `json:"video_url,omitempty"`
	Message  string    `json:"message,omitempty"`
	Kind     string    `json:"kind,omitempty"`
}

// Listener receives session events. Publish is called with the session lock
// held, so implementations must not block or call back into the session.
type Listener interface {
	Publish(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// Publish calls f(e).
func (f ListenerFunc) Publish(e Event) { f(e) }

type nopListener struct{}

func (nopListener) Publish(Event) {}
