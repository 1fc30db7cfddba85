// Package library stores saved mind maps so they can be reopened later.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/videomind/internal/db"
	"github.com/ziadkadry99/videomind/internal/mindmap"
)

// ErrNotFound is returned when no saved map has the requested ID.
var ErrNotFound = errors.New("mind map not found")

// Indexer keeps a search index in step with the library.
type Indexer interface {
	IndexMap(ctx context.Context, mapID, title string, d *mindmap.Document) error
	RemoveMap(ctx context.Context, mapID string) error
}

// Store provides CRUD operations for saved mind maps.
type Store struct {
	db      *db.DB
	indexer Indexer
}

// NewStore creates a new library store. indexer may be nil.
func NewStore(d *db.DB, indexer Indexer) *Store {
	return &Store{db: d, indexer: indexer}
}

// Save stores a validated document. An empty title falls back to the first
// sentence of the root topic. If only indexing fails, the saved entry is
// returned together with the error.
func (s *Store) Save(ctx context.Context, doc *mindmap.Document, title, source string) (*Entry, error) {
	if err := mindmap.ValidateDocument(doc); err != nil {
		return nil, err
	}
	data, err := mindmap.Serialize(doc)
	if err != nil {
		return nil, err
	}
	if title = strings.TrimSpace(title); title == "" {
		title = defaultTitle(doc.RootTopic)
	}
	if source == "" {
		source = "uploaded"
	}

	now := time.Now().UTC()
	e := &Entry{
		ID:        uuid.NewString(),
		Title:     title,
		RootTopic: doc.RootTopic,
		NodeCount: len(doc.Nodes),
		Source:    source,
		VideoURL:  doc.VideoURL,
		Keywords:  collectKeywords(doc),
		Document:  data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	keywordsJSON, err := json.Marshal(e.Keywords)
	if err != nil {
		return nil, fmt.Errorf("marshaling keywords: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO mindmaps (id, title, root_topic, node_count, source, video_url, keywords, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.RootTopic, e.NodeCount, e.Source, e.VideoURL,
		string(keywordsJSON), string(data), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("saving mind map: %w", err)
	}

	if s.indexer != nil {
		if err := s.indexer.IndexMap(ctx, e.ID, e.Title, doc); err != nil {
			return e, fmt.Errorf("indexing mind map: %w", err)
		}
	}
	return e, nil
}

// Get retrieves a saved map including its document.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	e := &Entry{}
	var keywordsJSON, document string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, root_topic, node_count, source, video_url, keywords, document, created_at, updated_at
		 FROM mindmaps WHERE id = ?`, id,
	).Scan(&e.ID, &e.Title, &e.RootTopic, &e.NodeCount, &e.Source, &e.VideoURL,
		&keywordsJSON, &document, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting mind map: %w", err)
	}
	if err := json.Unmarshal([]byte(keywordsJSON), &e.Keywords); err != nil {
		return nil, fmt.Errorf("unmarshaling keywords: %w", err)
	}
	e.Document = json.RawMessage(document)
	return e, nil
}

// List returns saved maps, newest first, without their documents. A
// non-empty query filters on title, root topic and keywords.
func (s *Store) List(ctx context.Context, query string) ([]Entry, error) {
	q := `SELECT id, title, root_topic, node_count, source, video_url, keywords, created_at, updated_at FROM mindmaps`
	var args []any
	if query = strings.TrimSpace(query); query != "" {
		pattern := "%" + query + "%"
		q += ` WHERE title LIKE ? OR root_topic LIKE ? OR keywords LIKE ?`
		args = append(args, pattern, pattern, pattern)
	}
	q += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing mind maps: %w", err)
	}
	defer rows.Close()

	result := []Entry{}
	for rows.Next() {
		var e Entry
		var keywordsJSON string
		if err := rows.Scan(&e.ID, &e.Title, &e.RootTopic, &e.NodeCount, &e.Source, &e.VideoURL,
			&keywordsJSON, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning mind map: %w", err)
		}
		if err := json.Unmarshal([]byte(keywordsJSON), &e.Keywords); err != nil {
			return nil, fmt.Errorf("unmarshaling keywords: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// Delete removes a saved map.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mindmaps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting mind map: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	if s.indexer != nil {
		if err := s.indexer.RemoveMap(ctx, id); err != nil {
			return fmt.Errorf("unindexing mind map: %w", err)
		}
	}
	return nil
}

func defaultTitle(rootTopic string) string {
	if sentences := mindmap.SummarySentences(rootTopic); len(sentences) > 0 {
		return sentences[0]
	}
	return "Untitled mind map"
}

// collectKeywords returns the distinct keywords of all nodes in first-seen order.
func collectKeywords(doc *mindmap.Document) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, n := range doc.Nodes {
		for _, k := range n.Keywords {
			key := strings.ToLower(k)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, k)
		}
	}
	return out
}
