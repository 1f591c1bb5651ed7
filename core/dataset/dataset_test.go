package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/textspan/speechmark/core/corpus"
	"github.com/textspan/speechmark/core/errors"
	"github.com/textspan/speechmark/core/quote"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testDocument(t *testing.T) (corpus.Document, []corpus.LabeledParagraph, []quote.Span) {
	t.Helper()
	texts := []string{
		`He said " Hello world " today`,
		"plain narration",
	}
	doc := corpus.Document{ID: "novel", Title: "A Novel", SourceHash: corpus.HashText("src")}
	for i, text := range texts {
		doc.Paragraphs = append(doc.Paragraphs, corpus.Paragraph{
			DocID:  "novel",
			ParaID: fmt.Sprintf("novel_para%d", i),
			Text:   text,
			Tokens: corpus.Tokenize(text),
		})
	}

	labeler := quote.NewLabeler(quote.DefaultConfig())
	labeled, err := labeler.LabelDocument(doc)
	if err != nil {
		t.Fatalf("labeling: %v", err)
	}
	spans := quote.NewMatcher(quote.DefaultConfig()).FindSpans(doc.Paragraphs)
	return doc, labeled, spans
}

func TestCreateAndGetRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	cfg := quote.DefaultConfig()
	cfg.SpeechLabel = "SPEECH"

	created, err := store.CreateRun(ctx, "nightly", "/corpora/novels", cfg)
	if err != nil {
		t.Fatalf("CreateRun() error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("run ID is empty")
	}

	got, err := store.GetRun(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if got.Label != "nightly" || got.CorpusDir != "/corpora/novels" {
		t.Errorf("run = %+v, want label/corpus preserved", got)
	}
	if got.Config != cfg {
		t.Errorf("config = %+v, want %+v", got.Config, cfg)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetRun(context.Background(), "no-such-run")
	if err == nil {
		t.Fatal("missing run accepted")
	}
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSaveAndLoadDocument(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, "", "", quote.DefaultConfig())
	if err != nil {
		t.Fatalf("CreateRun() error: %v", err)
	}

	doc, labeled, spans := testDocument(t)
	if err := store.SaveDocument(ctx, run.ID, doc, labeled, spans); err != nil {
		t.Fatalf("SaveDocument() error: %v", err)
	}

	loaded, err := store.GetDocument(ctx, run.ID, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument() error: %v", err)
	}
	if len(loaded) != len(labeled) {
		t.Fatalf("got %d paragraphs, want %d", len(loaded), len(labeled))
	}
	for i := range loaded {
		if !reflect.DeepEqual(loaded[i].BIOLabels, labeled[i].BIOLabels) {
			t.Errorf("paragraph %d labels = %v, want %v", i, loaded[i].BIOLabels, labeled[i].BIOLabels)
		}
		if !reflect.DeepEqual(loaded[i].Tokens, labeled[i].Tokens) {
			t.Errorf("paragraph %d tokens = %v, want %v", i, loaded[i].Tokens, labeled[i].Tokens)
		}
	}

	loadedSpans, err := store.GetSpans(ctx, run.ID, doc.ID)
	if err != nil {
		t.Fatalf("GetSpans() error: %v", err)
	}
	if !reflect.DeepEqual(loadedSpans, spans) {
		t.Errorf("spans = %+v, want %+v", loadedSpans, spans)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, "", "", quote.DefaultConfig())
	if err != nil {
		t.Fatalf("CreateRun() error: %v", err)
	}

	_, err = store.GetDocument(ctx, run.ID, "absent")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListRunsAndDocuments(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.CreateRun(ctx, "first", "", quote.DefaultConfig())
	if err != nil {
		t.Fatalf("CreateRun() error: %v", err)
	}
	second, err := store.CreateRun(ctx, "second", "", quote.DefaultConfig())
	if err != nil {
		t.Fatalf("CreateRun() error: %v", err)
	}

	doc, labeled, spans := testDocument(t)
	if err := store.SaveDocument(ctx, first.ID, doc, labeled, spans); err != nil {
		t.Fatalf("SaveDocument() error: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}

	var firstRun Run
	for _, r := range runs {
		if r.ID == first.ID {
			firstRun = r
		}
		if r.ID == second.ID && r.Documents != 0 {
			t.Errorf("empty run reports %d documents", r.Documents)
		}
	}
	if firstRun.Documents != 1 {
		t.Errorf("run documents = %d, want 1", firstRun.Documents)
	}

	records, err := store.ListDocuments(ctx, first.ID)
	if err != nil {
		t.Fatalf("ListDocuments() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d document records, want 1", len(records))
	}
	rec := records[0]
	if rec.DocID != doc.ID || rec.Paragraphs != len(labeled) || rec.Spans != len(spans) {
		t.Errorf("record = %+v, want doc %s with %d paragraphs and %d spans", rec, doc.ID, len(labeled), len(spans))
	}
}

func TestDuplicateDocumentRejected(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, "", "", quote.DefaultConfig())
	if err != nil {
		t.Fatalf("CreateRun() error: %v", err)
	}

	doc, labeled, spans := testDocument(t)
	if err := store.SaveDocument(ctx, run.ID, doc, labeled, spans); err != nil {
		t.Fatalf("SaveDocument() error: %v", err)
	}
	if err := store.SaveDocument(ctx, run.ID, doc, labeled, spans); err == nil {
		t.Error("duplicate document accepted")
	}
}

func TestDriverInfo(t *testing.T) {
	if DriverName() == "" {
		t.Error("DriverName() is empty")
	}
	if dt := DriverType(); dt != "purego" && dt != "cgo" {
		t.Errorf("DriverType() = %q", dt)
	}
}
