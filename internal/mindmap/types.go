package mindmap

import (
	"encoding/json"
	"fmt"
)

// Document is the topic decomposition of one video. It corresponds to the
// JSON file accepted from upload and generation and produced by download.
type Document struct {
	RootTopic     string           `json:"root_topic"`
	VideoURL      string           `json:"video_url,omitempty"`
	Nodes         []TopicNode      `json:"nodes"`
	Transcription []TranscriptLine `json:"transcription,omitempty"`
}

// TopicNode is a single topic of the video with the time window it covers.
type TopicNode struct {
	Topic     string   `json:"topic"`
	Summary   []string `json:"summary"`
	Keywords  []string `json:"keywords"`
	Timestamp Range    `json:"timestamp"`
}

// TranscriptLine is one time-stamped caption line.
type TranscriptLine struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Range is a half-open time window [Start, End) in seconds. On the wire it is
// a two-element array.
type Range struct {
	Start float64
	End   float64
}

// Contains reports whether t falls inside the half-open window.
func (r Range) Contains(t float64) bool {
	return t >= r.Start && t < r.End
}

// Duration returns End - Start.
func (r Range) Duration() float64 {
	return r.End - r.Start
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Start, r.End})
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("timestamp must be an array of two numbers: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("timestamp must have exactly two elements, got %d", len(pair))
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}
