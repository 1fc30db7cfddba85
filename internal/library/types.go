package library

import (
	"encoding/json"
	"time"
)

// Entry is a saved mind map.
type Entry struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	RootTopic string          `json:"root_topic"`
	NodeCount int             `json:"node_count"`
	Source    string          `json:"source"`
	VideoURL  string          `json:"video_url,omitempty"`
	Keywords  []string        `json:"keywords"`
	Document  json.RawMessage `json:"document,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
