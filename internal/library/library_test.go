package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/videomind/internal/db"
	"github.com/ziadkadry99/videomind/internal/mindmap"
)

type fakeIndexer struct {
	indexed map[string]int
	removed []string
}

func (f *fakeIndexer) IndexMap(_ context.Context, id, _ string, d *mindmap.Document) error {
	if f.indexed == nil {
		f.indexed = make(map[string]int)
	}
	f.indexed[id] = len(d.Nodes)
	return nil
}

func (f *fakeIndexer) RemoveMap(_ context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

type fakeViewer struct {
	active *mindmap.Document
	source string
	loaded [][]byte
}

func (v *fakeViewer) ActiveDocument() (*mindmap.Document, string) { return v.active, v.source }

func (v *fakeViewer) LoadSaved(data []byte) error {
	if _, err := mindmap.Validate(data); err != nil {
		return err
	}
	v.loaded = append(v.loaded, data)
	return nil
}

func setupTest(t *testing.T) (*Store, *fakeIndexer) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	idx := &fakeIndexer{}
	return NewStore(database, idx), idx
}

func sampleDoc() *mindmap.Document {
	return &mindmap.Document{
		RootTopic: "Cooking pasta. Boil water first.",
		Nodes: []mindmap.TopicNode{
			{Topic: "Water", Summary: []string{"Salt it"}, Keywords: []string{"salt", "Boil"}, Timestamp: mindmap.Range{Start: 0, End: 30}},
			{Topic: "Pasta", Summary: []string{}, Keywords: []string{"boil", "al dente"}, Timestamp: mindmap.Range{Start: 30, End: 90}},
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	store, idx := setupTest(t)
	ctx := context.Background()

	e, err := store.Save(ctx, sampleDoc(), "", "generated")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if e.Title != "Cooking pasta" {
		t.Errorf("default title = %q", e.Title)
	}
	if len(e.Keywords) != 3 {
		t.Errorf("keywords = %v, want case-insensitive distinct list of 3", e.Keywords)
	}
	if idx.indexed[e.ID] != 2 {
		t.Errorf("indexer saw %v", idx.indexed)
	}

	got, err := store.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Source != "generated" || got.NodeCount != 2 {
		t.Errorf("unexpected entry: %+v", got)
	}
	doc, err := mindmap.Deserialize(got.Document)
	if err != nil {
		t.Fatalf("stored document is invalid: %v", err)
	}
	if doc.Nodes[1].Topic != "Pasta" {
		t.Errorf("round trip lost nodes: %+v", doc.Nodes)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	store, _ := setupTest(t)
	bad := sampleDoc()
	bad.Nodes[0].Timestamp = mindmap.Range{Start: 50, End: 10}
	if _, err := store.Save(context.Background(), bad, "x", ""); !mindmap.IsKind(err, mindmap.KindRange) {
		t.Errorf("expected range error, got %v", err)
	}
}

func TestListAndSearch(t *testing.T) {
	store, _ := setupTest(t)
	ctx := context.Background()
	_, _ = store.Save(ctx, sampleDoc(), "Pasta night", "")
	other := sampleDoc()
	other.RootTopic = "Knitting basics"
	other.Nodes[0].Keywords = []string{"yarn"}
	other.Nodes[1].Keywords = []string{"needles"}
	_, _ = store.Save(ctx, other, "", "")

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d entries", len(all))
	}
	if all[0].Title != "Knitting basics" {
		t.Errorf("newest first expected, got %q", all[0].Title)
	}
	if all[0].Document != nil {
		t.Error("list should not include documents")
	}

	tests := []struct {
		query string
		want  int
	}{
		{"pasta", 1},
		{"yarn", 1},
		{"basics", 1},
		{"nothing", 0},
	}
	for _, tt := range tests {
		got, err := store.List(ctx, tt.query)
		if err != nil {
			t.Fatalf("List(%q): %v", tt.query, err)
		}
		if len(got) != tt.want {
			t.Errorf("List(%q) = %d entries, want %d", tt.query, len(got), tt.want)
		}
	}
}

func TestDelete(t *testing.T) {
	store, idx := setupTest(t)
	ctx := context.Background()
	e, _ := store.Save(ctx, sampleDoc(), "", "")
	if err := store.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(idx.removed) != 1 || idx.removed[0] != e.ID {
		t.Errorf("removed = %v", idx.removed)
	}
	if _, err := store.Get(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func setupRouter(t *testing.T) (*chi.Mux, *Store, *fakeViewer) {
	t.Helper()
	store, _ := setupTest(t)
	viewer := &fakeViewer{active: sampleDoc(), source: "default"}
	r := chi.NewRouter()
	RegisterRoutes(r, store, viewer)
	return r, store, viewer
}

func TestSaveActiveRoute(t *testing.T) {
	r, store, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/library", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var e Entry
	if err := json.NewDecoder(w.Body).Decode(&e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Source != "default" {
		t.Errorf("source = %q, want default", e.Source)
	}
	if _, err := store.Get(context.Background(), e.ID); err != nil {
		t.Errorf("saved entry not found: %v", err)
	}
}

func TestSavePostedDocumentRoute(t *testing.T) {
	r, _, _ := setupRouter(t)

	body := `{"title":"Mine","document":{"root_topic":"R","nodes":[{"topic":"a","timestamp":[0,1]}]}}`
	req := httptest.NewRequest(http.MethodPost, "/api/library", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	bad := `{"document":{"root_topic":"R","nodes":[{"topic":"a","timestamp":[5,1]}]}}`
	req = httptest.NewRequest(http.MethodPost, "/api/library", bytes.NewBufferString(bad))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid document status = %d, want 422", w.Code)
	}
}

func TestSaveRouteRejectsOversizedBody(t *testing.T) {
	r, store, _ := setupRouter(t)

	body := `{"title":"` + strings.Repeat("x", maxDocumentBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/library", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
	list, err := store.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("oversized request saved %d entries", len(list))
	}
}

func TestLoadRoute(t *testing.T) {
	r, store, viewer := setupRouter(t)
	e, _ := store.Save(context.Background(), sampleDoc(), "", "")

	req := httptest.NewRequest(http.MethodPost, "/api/library/"+e.ID+"/load", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if len(viewer.loaded) != 1 {
		t.Errorf("viewer loaded %d documents", len(viewer.loaded))
	}

	req = httptest.NewRequest(http.MethodPost, "/api/library/missing/load", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", w.Code)
	}
}

func TestDeleteRoute(t *testing.T) {
	r, store, _ := setupRouter(t)
	e, _ := store.Save(context.Background(), sampleDoc(), "", "")

	req := httptest.NewRequest(http.MethodDelete, "/api/library/"+e.ID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/library/"+e.ID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
