package quote

import (
	"reflect"
	"testing"

	"github.com/textspan/speechmark/core/corpus"
)

func labelsOf(lps []corpus.LabeledParagraph) [][]string {
	out := make([][]string, len(lps))
	for i, lp := range lps {
		out[i] = lp.BIOLabels
	}
	return out
}

func TestProjectLabelsDelimitersStayOutside(t *testing.T) {
	paras := makeParagraphs("doc", `He said " Hello world " today`)
	spans := []Span{{OpenPara: 0, OpenToken: 2, ClosePara: 0, CloseToken: 5, Char: '"'}}

	lps, err := ProjectLabels(paras, spans, "DIRECT")
	if err != nil {
		t.Fatalf("ProjectLabels() error: %v", err)
	}
	want := [][]string{{"O", "O", "O", "B-DIRECT", "I-DIRECT", "O", "O"}}
	if got := labelsOf(lps); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestProjectLabelsFreshBeginPerParagraph(t *testing.T) {
	paras := makeParagraphs("doc",
		`He said " It was late`,
		`and dark " he finished`,
	)
	spans := []Span{{OpenPara: 0, OpenToken: 2, ClosePara: 1, CloseToken: 2, Char: '"'}}

	lps, err := ProjectLabels(paras, spans, "DIRECT")
	if err != nil {
		t.Fatalf("ProjectLabels() error: %v", err)
	}
	want := [][]string{
		{"O", "O", "O", "B-DIRECT", "I-DIRECT", "I-DIRECT"},
		{"B-DIRECT", "I-DIRECT", "O", "O", "O"},
	}
	if got := labelsOf(lps); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestProjectLabelsUnclosedCoversToDocumentEnd(t *testing.T) {
	paras := makeParagraphs("doc",
		`He said " It began`,
		`and never stopped`,
	)
	spans := []Span{{OpenPara: 0, OpenToken: 2, ClosePara: 1, CloseToken: Unclosed, Char: '"'}}

	lps, err := ProjectLabels(paras, spans, "DIRECT")
	if err != nil {
		t.Fatalf("ProjectLabels() error: %v", err)
	}
	want := [][]string{
		{"O", "O", "O", "B-DIRECT", "I-DIRECT"},
		{"B-DIRECT", "I-DIRECT", "I-DIRECT"},
	}
	if got := labelsOf(lps); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestProjectLabelsOverlapLastWriteWins(t *testing.T) {
	// Inner span first in the list, outer second: the outer pass rewrites
	// the inner tokens, so the inner B- becomes an I- of the outer run.
	paras := makeParagraphs("doc", `She said " He said ' Hi ' " .`)
	spans := []Span{
		{OpenPara: 0, OpenToken: 5, ClosePara: 0, CloseToken: 7, Char: '\'', Nesting: 1, IsNested: true},
		{OpenPara: 0, OpenToken: 2, ClosePara: 0, CloseToken: 8, Char: '"'},
	}

	lps, err := ProjectLabels(paras, spans, "DIRECT")
	if err != nil {
		t.Fatalf("ProjectLabels() error: %v", err)
	}
	want := [][]string{{"O", "O", "O", "B-DIRECT", "I-DIRECT", "O", "I-DIRECT", "O", "O", "O"}}
	if got := labelsOf(lps); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestProjectLabelsNoSpans(t *testing.T) {
	paras := makeParagraphs("doc", "plain narration here", "")

	lps, err := ProjectLabels(paras, nil, "DIRECT")
	if err != nil {
		t.Fatalf("ProjectLabels() error: %v", err)
	}
	if len(lps) != 2 {
		t.Fatalf("got %d labeled paragraphs, want 2", len(lps))
	}
	want := []string{"O", "O", "O"}
	if !reflect.DeepEqual(lps[0].BIOLabels, want) {
		t.Errorf("labels = %v, want %v", lps[0].BIOLabels, want)
	}
	if len(lps[1].BIOLabels) != 0 {
		t.Errorf("empty paragraph labels = %v, want none", lps[1].BIOLabels)
	}
}

func TestProjectLabelsEmptyLabelDefaults(t *testing.T) {
	paras := makeParagraphs("doc", `" Hi "`)
	spans := []Span{{OpenPara: 0, OpenToken: 0, ClosePara: 0, CloseToken: 2, Char: '"'}}

	lps, err := ProjectLabels(paras, spans, "")
	if err != nil {
		t.Fatalf("ProjectLabels() error: %v", err)
	}
	want := [][]string{{"O", "B-" + DefaultSpeechLabel, "O"}}
	if got := labelsOf(lps); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestProjectLabelsClampsCloseToken(t *testing.T) {
	// A close token index beyond the paragraph is clamped, not an error.
	paras := makeParagraphs("doc", `" Hi `)
	spans := []Span{{OpenPara: 0, OpenToken: 0, ClosePara: 0, CloseToken: 99, Char: '"'}}

	lps, err := ProjectLabels(paras, spans, "DIRECT")
	if err != nil {
		t.Fatalf("ProjectLabels() error: %v", err)
	}
	want := [][]string{{"O", "B-DIRECT"}}
	if got := labelsOf(lps); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}
