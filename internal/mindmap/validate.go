package mindmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
)

// rawDocument mirrors Document with pointers so that missing fields can be
// told apart from zero values.
type rawDocument struct {
	RootTopic     *string            `json:"root_topic"`
	VideoURL      *string            `json:"video_url"`
	Nodes         *[]json.RawMessage `json:"nodes"`
	Transcription []TranscriptLine   `json:"transcription"`
}

type rawNode struct {
	Topic     *string           `json:"topic"`
	Summary   []string          `json:"summary"`
	Keywords  []string          `json:"keywords"`
	Timestamp []json.RawMessage `json:"timestamp"`
}

// Validate decodes candidate document bytes and checks every invariant. On
// success the returned document is canonical: Serialize followed by Validate
// yields an identical value. Failures are *Error values of KindSchema or
// KindRange.
func Validate(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, NewSchemaError(-1, "document must be a JSON object")
	}

	var raw rawDocument
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, schemaFromJSON(-1, err)
	}
	if raw.RootTopic == nil {
		return nil, NewSchemaError(-1, "root_topic is required")
	}
	if raw.Nodes == nil {
		return nil, NewSchemaError(-1, "nodes is required and must be an array")
	}

	doc := &Document{
		RootTopic:     *raw.RootTopic,
		Nodes:         make([]TopicNode, 0, len(*raw.Nodes)),
		Transcription: raw.Transcription,
	}
	if raw.VideoURL != nil {
		doc.VideoURL = *raw.VideoURL
	}

	for i, msg := range *raw.Nodes {
		node, err := decodeNode(i, msg)
		if err != nil {
			return nil, err
		}
		doc.Nodes = append(doc.Nodes, node)
	}

	canonicalize(doc)
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeNode(i int, msg json.RawMessage) (TopicNode, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return TopicNode{}, NewSchemaError(i, "node must be a JSON object")
	}
	var raw rawNode
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return TopicNode{}, schemaFromJSON(i, err)
	}
	if raw.Topic == nil {
		return TopicNode{}, NewSchemaError(i, "topic is required")
	}
	if raw.Timestamp == nil {
		return TopicNode{}, NewSchemaError(i, "timestamp is required")
	}
	if len(raw.Timestamp) != 2 {
		return TopicNode{}, NewSchemaError(i, "timestamp must have exactly two elements, got %d", len(raw.Timestamp))
	}
	var bounds [2]float64
	for j, part := range raw.Timestamp {
		if err := json.Unmarshal(part, &bounds[j]); err != nil {
			return TopicNode{}, NewSchemaError(i, "timestamp[%d] is not a number: %s", j, string(part))
		}
	}
	return TopicNode{
		Topic:     *raw.Topic,
		Summary:   raw.Summary,
		Keywords:  raw.Keywords,
		Timestamp: Range{Start: bounds[0], End: bounds[1]},
	}, nil
}

// ValidateDocument checks the invariants of an in-memory document without
// modifying it.
func ValidateDocument(d *Document) error {
	if d == nil {
		return NewSchemaError(-1, "document is nil")
	}
	if d.Nodes == nil {
		return NewSchemaError(-1, "nodes is required and must be an array")
	}
	for i, n := range d.Nodes {
		r := n.Timestamp
		if !finite(r.Start) || !finite(r.End) {
			return NewRangeError(i, "timestamp bounds must be finite")
		}
		if r.Start < 0 {
			return NewRangeError(i, "timestamp start %v is negative", r.Start)
		}
		if r.Start >= r.End {
			return NewRangeError(i, "timestamp start %v must be before end %v", r.Start, r.End)
		}
	}
	for i, line := range d.Transcription {
		if !finite(line.Start) || !finite(line.End) || line.Start < 0 || line.Start > line.End {
			return NewRangeError(-1, "transcription line %d has an invalid time range", i)
		}
	}
	return nil
}

// canonicalize replaces absent lists with their canonical form so that a
// validated document round-trips exactly.
func canonicalize(d *Document) {
	for i := range d.Nodes {
		if d.Nodes[i].Summary == nil {
			d.Nodes[i].Summary = []string{}
		}
		if d.Nodes[i].Keywords == nil {
			d.Nodes[i].Keywords = []string{}
		}
	}
	if len(d.Transcription) == 0 {
		d.Transcription = nil
	}
}

func schemaFromJSON(node int, err error) *Error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &Error{Kind: KindSchema, Node: node, Message: "field " + typeErr.Field + " has the wrong type", Err: err}
	}
	return &Error{Kind: KindSchema, Node: node, Message: "invalid JSON: " + err.Error(), Err: err}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
