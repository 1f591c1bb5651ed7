package corpus

import (
	"strings"
	"testing"
)

func TestNewLabeledParagraphValid(t *testing.T) {
	p := Paragraph{
		DocID:  "doc1",
		ParaID: "doc1_para0",
		Text:   "He said hello",
		Tokens: []string{"He", "said", "hello"},
	}

	lp, err := NewLabeledParagraph(p, []string{"O", "O", "O"})
	if err != nil {
		t.Fatalf("NewLabeledParagraph returned error for valid input: %v", err)
	}
	if len(lp.BIOLabels) != len(lp.Tokens) {
		t.Errorf("label count %d != token count %d", len(lp.BIOLabels), len(lp.Tokens))
	}
}

func TestNewLabeledParagraphLengthMismatch(t *testing.T) {
	p := Paragraph{
		DocID:  "doc1",
		ParaID: "doc1_para0",
		Text:   "He said hello",
		Tokens: []string{"He", "said", "hello"},
	}

	_, err := NewLabeledParagraph(p, []string{"O", "O"})
	if err == nil {
		t.Fatal("NewLabeledParagraph should fail when label count differs from token count")
	}
	if !strings.Contains(err.Error(), "doc1_para0") {
		t.Errorf("error should name the paragraph, got %q", err.Error())
	}
}

func TestNewLabeledParagraphEmpty(t *testing.T) {
	p := Paragraph{DocID: "doc1", ParaID: "doc1_para0", Text: "   "}

	lp, err := NewLabeledParagraph(p, nil)
	if err != nil {
		t.Fatalf("zero-token paragraph with empty labels should be valid: %v", err)
	}
	if len(lp.BIOLabels) != 0 {
		t.Errorf("expected no labels, got %d", len(lp.BIOLabels))
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"simple", "He said hello", []string{"He", "said", "hello"}},
		{"collapsed whitespace", "He  said\thello\n", []string{"He", "said", "hello"}},
		{"empty", "", nil},
		{"whitespace only", "  \t\n ", nil},
		{"quote tokens", `He said " Hello world "`, []string{"He", "said", `"`, "Hello", "world", `"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHashText(t *testing.T) {
	h1 := HashText("He said hello")
	h2 := HashText("He said hello")
	h3 := HashText("He said goodbye")

	if h1 != h2 {
		t.Error("HashText should be deterministic")
	}
	if h1 == h3 {
		t.Error("different texts should hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
}

func TestValidateParagraph(t *testing.T) {
	p := &Paragraph{DocID: "d", ParaID: "d_para0"}
	if errs := ValidateParagraph(p); len(errs) > 0 {
		t.Errorf("valid paragraph returned errors: %v", errs)
	}

	missing := &Paragraph{}
	if errs := ValidateParagraph(missing); len(errs) != 2 {
		t.Errorf("expected 2 errors for missing IDs, got %d", len(errs))
	}
}

func TestValidateLabeled(t *testing.T) {
	lp := &LabeledParagraph{
		Paragraph: Paragraph{DocID: "d", ParaID: "p", Tokens: []string{"a", "b"}},
		BIOLabels: []string{"O"},
	}
	errs := ValidateLabeled(lp)
	if len(errs) == 0 {
		t.Error("ValidateLabeled should report length mismatch")
	}
}
