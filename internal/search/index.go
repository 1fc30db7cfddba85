// Package search indexes the topics of saved mind maps for semantic search.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/videomind/internal/mindmap"
)

const collectionName = "topics"

// Hit is one matching topic.
type Hit struct {
	MapID      string  `json:"map_id"`
	Title      string  `json:"title"`
	Node       int     `json:"node"`
	Topic      string  `json:"topic"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

// Index is a chromem-go collection with one document per topic node.
type Index struct {
	mu         sync.Mutex
	db         *chromem.DB
	collection *chromem.Collection
}

// NewIndex creates an index. A non-empty dir persists the collection there;
// an empty dir keeps it in memory.
func NewIndex(embedder Embedder, dir string) (*Index, error) {
	var (
		db  *chromem.DB
		err error
	)
	if dir != "" {
		db, err = chromem.NewPersistentDB(dir, true)
		if err != nil {
			return nil, fmt.Errorf("opening search index: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, toChromemFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{db: db, collection: col}, nil
}

// IndexMap replaces the indexed topics of one saved map.
func (x *Index) IndexMap(ctx context.Context, mapID, title string, d *mindmap.Document) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.removeLocked(ctx, mapID); err != nil {
		return err
	}
	if d == nil || len(d.Nodes) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(d.Nodes))
	for i, n := range d.Nodes {
		docs[i] = chromem.Document{
			ID:      mapID + "#" + strconv.Itoa(i),
			Content: nodeContent(n),
			Metadata: map[string]string{
				"map_id": mapID,
				"title":  title,
				"node":   strconv.Itoa(i),
				"topic":  n.Topic,
				"start":  strconv.FormatFloat(n.Timestamp.Start, 'f', -1, 64),
				"end":    strconv.FormatFloat(n.Timestamp.End, 'f', -1, 64),
			},
		}
	}
	if err := x.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("indexing map %s: %w", mapID, err)
	}
	return nil
}

// RemoveMap drops every topic of a saved map.
func (x *Index) RemoveMap(ctx context.Context, mapID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.removeLocked(ctx, mapID)
}

func (x *Index) removeLocked(ctx context.Context, mapID string) error {
	if x.collection.Count() == 0 {
		return nil
	}
	if err := x.collection.Delete(ctx, map[string]string{"map_id": mapID}, nil); err != nil {
		return fmt.Errorf("removing map %s from index: %w", mapID, err)
	}
	return nil
}

// Search returns the topics most similar to query.
func (x *Index) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if limit <= 0 {
		limit = 10
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	// chromem-go requires nResults <= collection size.
	count := x.collection.Count()
	if count == 0 {
		return []Hit{}, nil
	}
	if limit > count {
		limit = count
	}

	results, err := x.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		node, _ := strconv.Atoi(r.Metadata["node"])
		start, _ := strconv.ParseFloat(r.Metadata["start"], 64)
		end, _ := strconv.ParseFloat(r.Metadata["end"], 64)
		hits[i] = Hit{
			MapID:      r.Metadata["map_id"],
			Title:      r.Metadata["title"],
			Node:       node,
			Topic:      r.Metadata["topic"],
			Start:      start,
			End:        end,
			Content:    r.Content,
			Similarity: r.Similarity,
		}
	}
	return hits, nil
}

// Count returns the number of indexed topics.
func (x *Index) Count() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.collection.Count()
}

func nodeContent(n mindmap.TopicNode) string {
	var b strings.Builder
	b.WriteString(n.Topic)
	for _, s := range n.Summary {
		b.WriteString(". ")
		b.WriteString(s)
	}
	if len(n.Keywords) > 0 {
		b.WriteString(". Keywords: ")
		b.WriteString(strings.Join(n.Keywords, ", "))
	}
	return b.String()
}

// toChromemFunc adapts an Embedder to the single-text function chromem-go expects.
func toChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		results, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("embedder returned no vectors")
		}
		return results[0], nil
	}
}
