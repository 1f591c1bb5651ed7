package quote

// Unclosed is the closing-token sentinel for spans finalized at document
// end without a matching closing character.
const Unclosed = -1

// Span is a detected quotation: a contiguous, possibly cross-paragraph
// range of tokens. Spans are transient values handed from the matcher to
// the projector; they are not persisted by the engine.
type Span struct {
	// OpenPara and OpenToken locate the opening quote character.
	OpenPara  int
	OpenToken int

	// ClosePara and CloseToken locate the closing quote character.
	// CloseToken is Unclosed for spans finalized at document end.
	ClosePara  int
	CloseToken int

	// Char is the quote character that opened the span.
	Char rune

	// Nesting is the number of quotes still open when this span closed.
	Nesting int

	// IsNested reports whether the span closed inside another open quote.
	IsNested bool
}

// IsUnclosed reports whether the span was finalized without a matching
// closing character.
func (s Span) IsUnclosed() bool { return s.CloseToken == Unclosed }

// Covers reports whether paragraph index p falls inside the span's
// paragraph range.
func (s Span) Covers(p int) bool {
	if p < s.OpenPara {
		return false
	}
	if s.IsUnclosed() {
		return true
	}
	return p <= s.ClosePara
}
