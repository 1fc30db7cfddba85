package mindmap

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func twoNodeDoc() *Document {
	return &Document{
		RootTopic: "Two topics",
		Nodes: []TopicNode{
			{Topic: "first", Summary: []string{"a"}, Keywords: []string{}, Timestamp: Range{Start: 0, End: 30}},
			{Topic: "second", Summary: []string{"b"}, Keywords: []string{}, Timestamp: Range{Start: 30, End: 90}},
		},
	}
}

// --- Time resolver ---

func TestResolveActiveExamples(t *testing.T) {
	d := twoNodeDoc()
	tests := []struct {
		time   float64
		want   int
		wantOK bool
	}{
		{0, 0, true},
		{29.9, 0, true},
		{30, 1, true},
		{89.999, 1, true},
		{90, -1, false},
		{95, -1, false},
		{-1, -1, false},
		{math.NaN(), -1, false},
	}
	for _, tt := range tests {
		got, ok := ResolveActive(d, tt.time)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ResolveActive(%v) = (%d, %v), want (%d, %v)", tt.time, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestResolveActiveOverlapPrefersEarliestDeclared(t *testing.T) {
	d := &Document{
		RootTopic: "overlap",
		Nodes: []TopicNode{
			{Topic: "late", Timestamp: Range{Start: 50, End: 100}},
			{Topic: "wide", Timestamp: Range{Start: 0, End: 200}},
			{Topic: "narrow", Timestamp: Range{Start: 60, End: 70}},
		},
	}
	if got, _ := ResolveActive(d, 65); got != 0 {
		t.Errorf("t=65: got %d, want 0", got)
	}
	if got, _ := ResolveActive(d, 10); got != 1 {
		t.Errorf("t=10: got %d, want 1", got)
	}
	if got, _ := ResolveActive(d, 150); got != 1 {
		t.Errorf("t=150: got %d, want 1", got)
	}
}

func TestResolveActiveEmptyAndNil(t *testing.T) {
	if _, ok := ResolveActive(nil, 1); ok {
		t.Error("nil document should resolve to none")
	}
	if _, ok := ResolveActive(&Document{RootTopic: "x", Nodes: []TopicNode{}}, 1); ok {
		t.Error("empty document should resolve to none")
	}
}

func TestResolveActiveMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		n := rng.Intn(12)
		d := &Document{RootTopic: "random", Nodes: make([]TopicNode, n)}
		for i := range d.Nodes {
			start := float64(rng.Intn(100))
			d.Nodes[i].Timestamp = Range{Start: start, End: start + 1 + float64(rng.Intn(40))}
		}
		for step := 0; step < 50; step++ {
			tm := rng.Float64() * 150
			want := -1
			for i, node := range d.Nodes {
				if node.Timestamp.Start <= tm && tm < node.Timestamp.End {
					want = i
					break
				}
			}
			got, ok := ResolveActive(d, tm)
			if got != want || ok != (want >= 0) {
				t.Fatalf("round %d t=%v: got (%d,%v), want %d", round, tm, got, ok, want)
			}
		}
	}
}

func TestResolveCaption(t *testing.T) {
	d := twoNodeDoc()
	d.Transcription = []TranscriptLine{
		{Text: "hello", Start: 0, End: 2},
		{Text: "world", Start: 2, End: 4},
	}
	if got, ok := ResolveCaption(d, 2); !ok || got != 1 {
		t.Errorf("ResolveCaption(2) = (%d, %v), want (1, true)", got, ok)
	}
	if _, ok := ResolveCaption(d, 4); ok {
		t.Error("ResolveCaption(4) should be none")
	}
}

// --- Validation ---

func TestValidateAcceptsMinimalDocument(t *testing.T) {
	doc, err := Validate([]byte(`{"root_topic":"Only root","nodes":[]}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if doc.RootTopic != "Only root" || len(doc.Nodes) != 0 || doc.Nodes == nil {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind Kind
	}{
		{"not json", `not json`, KindSchema},
		{"array root", `[]`, KindSchema},
		{"missing nodes", `{"root_topic":"x"}`, KindSchema},
		{"null nodes", `{"root_topic":"x","nodes":null}`, KindSchema},
		{"nodes wrong shape", `{"root_topic":"x","nodes":"abc"}`, KindSchema},
		{"missing root", `{"nodes":[]}`, KindSchema},
		{"node not object", `{"root_topic":"x","nodes":[1]}`, KindSchema},
		{"missing topic", `{"root_topic":"x","nodes":[{"timestamp":[0,1]}]}`, KindSchema},
		{"missing timestamp", `{"root_topic":"x","nodes":[{"topic":"t"}]}`, KindSchema},
		{"non numeric", `{"root_topic":"x","nodes":[{"topic":"t","timestamp":["0","1"]}]}`, KindSchema},
		{"wrong arity", `{"root_topic":"x","nodes":[{"topic":"t","timestamp":[0,1,2]}]}`, KindSchema},
		{"inverted", `{"root_topic":"x","nodes":[{"topic":"t","timestamp":[10,5]}]}`, KindRange},
		{"empty range", `{"root_topic":"x","nodes":[{"topic":"t","timestamp":[5,5]}]}`, KindRange},
		{"negative", `{"root_topic":"x","nodes":[{"topic":"t","timestamp":[-1,5]}]}`, KindRange},
		{"bad caption", `{"root_topic":"x","nodes":[],"transcription":[{"text":"a","start":3,"end":1}]}`, KindRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate([]byte(tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsKind(err, tt.kind) {
				t.Errorf("got %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestValidateTranscriptionLineError(t *testing.T) {
	d := twoNodeDoc()
	d.Transcription = []TranscriptLine{
		{Text: "ok", Start: 0, End: 2},
		{Text: "bad", Start: 4, End: 3},
	}
	var mErr *Error
	if !errors.As(ValidateDocument(d), &mErr) {
		t.Fatal("expected a mind-map error")
	}
	if mErr.Kind != KindRange || mErr.Node != -1 {
		t.Errorf("kind = %s node = %d, want range error without node", mErr.Kind, mErr.Node)
	}
	if mErr.Message != "transcription line 1 has an invalid time range" {
		t.Errorf("message = %q", mErr.Message)
	}
}

func TestValidateDocumentNonFinite(t *testing.T) {
	d := twoNodeDoc()
	d.Nodes[1].Timestamp.End = math.Inf(1)
	err := ValidateDocument(d)
	if !IsKind(err, KindRange) {
		t.Fatalf("expected range error, got %v", err)
	}
	var mErr *Error
	if e, ok := err.(*Error); ok {
		mErr = e
	}
	if mErr == nil || mErr.Node != 1 {
		t.Errorf("expected node index 1, got %+v", mErr)
	}
}

func TestValidateCanonicalizesLists(t *testing.T) {
	doc, err := Validate([]byte(`{"root_topic":"x","nodes":[{"topic":"t","timestamp":[0,1]}],"transcription":[]}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if doc.Nodes[0].Summary == nil || doc.Nodes[0].Keywords == nil {
		t.Error("summary and keywords should be empty, not nil")
	}
	if doc.Transcription != nil {
		t.Error("empty transcription should be absent")
	}
}

// --- Serialization ---

func TestSerializeRoundTrip(t *testing.T) {
	for _, tier := range Tiers() {
		doc, err := Builtin(tier)
		if err != nil {
			t.Fatalf("Builtin(%s): %v", tier, err)
		}
		data, err := Serialize(doc)
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		back, err := Deserialize(data)
		if err != nil {
			t.Fatalf("Deserialize: %v", err)
		}
		if !reflect.DeepEqual(doc, back) {
			t.Errorf("%s: round trip mismatch\nwant %+v\ngot  %+v", tier, doc, back)
		}
	}
}

func TestSerializeRoundTripPreservesDetails(t *testing.T) {
	doc, err := Validate([]byte(`{
		"root_topic": "Intro & <Outro>",
		"video_url": "blob:local/1",
		"nodes": [
			{"topic": "b", "summary": ["x"], "keywords": ["k", "k"], "timestamp": [10.125, 20.000001]},
			{"topic": "a", "summary": [], "keywords": [], "timestamp": [0, 0.1]}
		],
		"transcription": [{"text": "hi", "start": 0.3, "end": 0.3}]
	}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	data, err := Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if bytes.HasSuffix(data, []byte("\n")) {
		t.Error("serialized output should not end with a newline")
	}
	if !bytes.Contains(data, []byte("Intro & <Outro>")) {
		t.Error("serialized output should not HTML-escape the root topic")
	}
	back, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !reflect.DeepEqual(doc, back) {
		t.Errorf("round trip mismatch\nwant %+v\ngot  %+v", doc, back)
	}
	again, _ := Serialize(back)
	if !bytes.Equal(data, again) {
		t.Error("serialization is not stable")
	}
}

func TestSerializeFieldOrder(t *testing.T) {
	data, err := Serialize(twoNodeDoc())
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	root := bytes.Index(data, []byte(`"root_topic"`))
	nodes := bytes.Index(data, []byte(`"nodes"`))
	if root < 0 || nodes < 0 || root > nodes {
		t.Errorf("unexpected field order:\n%s", data)
	}
	if bytes.Contains(data, []byte("video_url")) || bytes.Contains(data, []byte("transcription")) {
		t.Errorf("optional fields should be omitted:\n%s", data)
	}
	if !bytes.Contains(data, []byte(`"timestamp": [`)) {
		t.Errorf("timestamp should be an array:\n%s", data)
	}
}

// --- Text helpers ---

func TestDownloadFilename(t *testing.T) {
	tests := []struct {
		root string
		want string
	}{
		{"Intro & Outro", "intro___outro_mindmap.json"},
		{"ABC123", "abc123_mindmap.json"},
		{"", "_mindmap.json"},
		{"Café!", "caf___mindmap.json"},
	}
	for _, tt := range tests {
		if got := DownloadFilename(tt.root); got != tt.want {
			t.Errorf("DownloadFilename(%q) = %q, want %q", tt.root, got, tt.want)
		}
	}
}

func TestSummarySentences(t *testing.T) {
	got := SummarySentences("First point. Second!!  Third?   ... ")
	want := []string{"First point", "Second", "Third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := SummarySentences("  "); len(got) != 0 {
		t.Errorf("blank root should have no sentences, got %q", got)
	}
}

func TestKeywordPreview(t *testing.T) {
	shown, more := KeywordPreview([]string{"a", "b", "c", "d", "e", "f"}, KeywordPreviewLimit)
	if len(shown) != 4 || more != 2 {
		t.Errorf("got %v +%d, want 4 shown +2", shown, more)
	}
	shown, more = KeywordPreview([]string{"a"}, KeywordPreviewLimit)
	if len(shown) != 1 || more != 0 {
		t.Errorf("got %v +%d, want 1 shown +0", shown, more)
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{59.9, "0:59"},
		{60, "1:00"},
		{605.4, "10:05"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := RangeLabel(Range{Start: 30, End: 90}); got != "0:30 - 1:30" {
		t.Errorf("RangeLabel = %q", got)
	}
}

// --- Built-ins ---

func TestBuiltinTiers(t *testing.T) {
	want := map[Tier]int{TierSmall: 3, TierMedium: 8, TierLarge: 15}
	for tier, n := range want {
		doc, err := Builtin(tier)
		if err != nil {
			t.Fatalf("Builtin(%s): %v", tier, err)
		}
		if len(doc.Nodes) != n {
			t.Errorf("%s: got %d nodes, want %d", tier, len(doc.Nodes), n)
		}
		again, _ := Builtin(tier)
		if again != doc {
			t.Errorf("%s: built-in identity should be stable", tier)
		}
	}
	if _, err := ParseTier("huge"); err == nil {
		t.Error("expected error for unknown tier")
	}
}

func TestErrorStatus(t *testing.T) {
	if NewSchemaError(-1, "x").Status() != 422 {
		t.Error("schema errors should map to 422")
	}
	if NewResourceError(nil).Status() != 502 {
		t.Error("resource errors should map to 502")
	}
	if KindOf(NewStaleResultError("t1")) != KindStaleResult {
		t.Error("KindOf should see stale result")
	}
}
