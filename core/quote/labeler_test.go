package quote

import (
	"reflect"
	"testing"

	"github.com/textspan/speechmark/core/corpus"
)

func runLabeler(t *testing.T, cfg Config, texts ...string) []corpus.LabeledParagraph {
	t.Helper()
	lps, err := NewLabeler(cfg).LabelParagraphs(makeParagraphs("doc", texts...))
	if err != nil {
		t.Fatalf("LabelParagraphs() error: %v", err)
	}
	return lps
}

func TestLabelerSimpleQuote(t *testing.T) {
	lps := runLabeler(t, DefaultConfig(), `He said " Hello world " today`)

	want := [][]string{{"O", "O", "O", "B-DIRECT", "I-DIRECT", "O", "O"}}
	if got := labelsOf(lps); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestLabelerNestedQuotes(t *testing.T) {
	lps := runLabeler(t, DefaultConfig(), `She said " He said ' Hi ' " .`)

	want := [][]string{{"O", "O", "O", "B-DIRECT", "I-DIRECT", "O", "I-DIRECT", "O", "O", "O"}}
	if got := labelsOf(lps); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestLabelerMultiParagraphQuote(t *testing.T) {
	lps := runLabeler(t, DefaultConfig(),
		`He said " It was late`,
		`and dark " he finished`,
	)

	want := [][]string{
		{"O", "O", "O", "B-DIRECT", "I-DIRECT", "I-DIRECT"},
		{"B-DIRECT", "I-DIRECT", "O", "O", "O"},
	}
	if got := labelsOf(lps); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestLabelerUnclosedQuote(t *testing.T) {
	lps := runLabeler(t, DefaultConfig(),
		`He said " It began`,
		`and never stopped`,
	)

	want := [][]string{
		{"O", "O", "O", "B-DIRECT", "I-DIRECT"},
		{"B-DIRECT", "I-DIRECT", "I-DIRECT"},
	}
	if got := labelsOf(lps); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestLabelerUnclosedQuoteDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HandleMultiParagraph = false
	lps := runLabeler(t, cfg,
		`He said " It began`,
		`and never stopped`,
	)

	want := [][]string{
		{"O", "O", "O", "O", "O"},
		{"O", "O", "O"},
	}
	if got := labelsOf(lps); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestLabelerCustomSpeechLabel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpeechLabel = "SPEECH"
	lps := runLabeler(t, cfg, `" Hi there "`)

	want := [][]string{{"O", "B-SPEECH", "I-SPEECH", "O"}}
	if got := labelsOf(lps); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestLabelerApostrophesStayOutside(t *testing.T) {
	lps := runLabeler(t, DefaultConfig(), "It was John's book and they didn't mind")

	for _, lp := range lps {
		for i, label := range lp.BIOLabels {
			if label != LabelOutside {
				t.Errorf("token %d (%q) labeled %q, want %q", i, lp.Tokens[i], label, LabelOutside)
			}
		}
	}
}

func TestLabelerLengthInvariant(t *testing.T) {
	lps := runLabeler(t, DefaultConfig(),
		`Mixed " content here`,
		"plain narration",
		"",
		`more ' nested " stuff " maybe '`,
	)

	for _, lp := range lps {
		if len(lp.BIOLabels) != len(lp.Tokens) {
			t.Errorf("paragraph %s: %d labels for %d tokens", lp.ParaID, len(lp.BIOLabels), len(lp.Tokens))
		}
	}
}

func TestLabelerBIOWellFormed(t *testing.T) {
	// Non-overlapping spans must produce well-formed BIO runs: within a
	// paragraph every I- run is preceded by a B- or I- of the same type.
	lps := runLabeler(t, DefaultConfig(),
		`He said " one " and " two continues`,
		`into this " paragraph and stops`,
	)

	for _, lp := range lps {
		prev := LabelOutside
		for i, label := range lp.BIOLabels {
			if IsInside(label) && !IsBegin(prev) && !IsInside(prev) {
				t.Errorf("paragraph %s token %d: %q follows %q", lp.ParaID, i, label, prev)
			}
			prev = label
		}
	}
}

func TestLabelerDeterministic(t *testing.T) {
	texts := []string{
		`He said " one thing`,
		`and " another ' inner ' thing " here`,
		"plain narration with John's book",
	}

	first := runLabeler(t, DefaultConfig(), texts...)
	for i := 0; i < 5; i++ {
		got := runLabeler(t, DefaultConfig(), texts...)
		if !reflect.DeepEqual(labelsOf(got), labelsOf(first)) {
			t.Fatalf("run %d differed:\n got %v\nwant %v", i, labelsOf(got), labelsOf(first))
		}
	}
}

func TestLabelerLabelDocument(t *testing.T) {
	doc := corpus.Document{
		ID:         "doc",
		Title:      "Test Document",
		Paragraphs: makeParagraphs("doc", `He said " Hello "`),
	}

	lps, err := NewLabeler(DefaultConfig()).LabelDocument(doc)
	if err != nil {
		t.Fatalf("LabelDocument() error: %v", err)
	}
	want := [][]string{{"O", "O", "O", "B-DIRECT", "O"}}
	if got := labelsOf(lps); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}
