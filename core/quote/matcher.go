package quote

import (
	"strings"

	"github.com/textspan/speechmark/core/corpus"
)

// Matcher detects quote spans in one document at a time. A Matcher is
// stateless between calls; each FindSpans call owns a fresh stack, so a
// single Matcher value may be shared by concurrent document passes.
type Matcher struct {
	cfg Config
}

// NewMatcher returns a Matcher with the given configuration.
func NewMatcher(cfg Config) *Matcher {
	if cfg.SpeechLabel == "" {
		cfg.SpeechLabel = DefaultSpeechLabel
	}
	return &Matcher{cfg: cfg}
}

// Config returns the matcher's configuration.
func (m *Matcher) Config() Config { return m.cfg }

// FindSpans walks the document's paragraphs in order and returns every
// detected quote span. Closed spans appear in closing order (inner spans
// before the outer spans that contain them); unclosed spans finalized at
// document end follow, in opening order.
func (m *Matcher) FindSpans(paragraphs []corpus.Paragraph) []Span {
	var spans []Span
	var stack Stack

	for paraIdx := range paragraphs {
		text := paragraphs[paraIdx].Text
		tokens := paragraphs[paraIdx].Tokens

		// Fast path: most narrative paragraphs carry no dialogue at all.
		// Skipping them up front keeps the pass linear over large corpora
		// and, by definition, changes no state.
		if !strings.ContainsAny(text, allQuoteChars) {
			continue
		}

		for tokenIdx, token := range tokens {
			runes := []rune(token)
			if len(runes) == 0 {
				continue
			}

			// Standalone quote token, the common case.
			if len(runes) == 1 {
				if IsQuoteChar(runes[0]) {
					spans = m.processQuote(runes[0], paraIdx, tokenIdx, &stack, spans)
				}
				continue
			}

			// Longer tokens are scanned only when a quote character sits
			// at either edge ("Hello, said," or Cameron's).
			if !IsQuoteChar(runes[0]) && !IsQuoteChar(runes[len(runes)-1]) {
				continue
			}

			for charIdx, ch := range runes {
				if !IsQuoteChar(ch) {
					continue
				}
				if IsSingleFamily(ch) &&
					Classify(ch, charIdx, tokenIdx, tokens, text) == RoleApostrophe {
					continue
				}
				spans = m.processQuote(ch, paraIdx, tokenIdx, &stack, spans)
			}
		}
	}

	return m.finalize(&stack, len(paragraphs), spans)
}

// processQuote applies the priority rule for one surviving quote
// character. Closing wins while a quote of the same family is open:
// straight quotes belong to both sets, and the stack state is the only
// thing that disambiguates their role. A character that cannot close the
// quote on top of the stack is treated as an opener, which is how a
// single quote inside an open double quote starts a nested quotation.
func (m *Matcher) processQuote(ch rune, paraIdx, tokenIdx int, stack *Stack, spans []Span) []Span {
	if top, ok := stack.Peek(); ok && Closes(ch, top.Char) {
		open, _ := stack.Pop()
		depth := stack.Depth()
		return append(spans, Span{
			OpenPara:   open.Para,
			OpenToken:  open.Token,
			ClosePara:  paraIdx,
			CloseToken: tokenIdx,
			Char:       open.Char,
			Nesting:    depth,
			IsNested:   depth > 0,
		})
	}
	if IsOpening(ch) {
		stack.Push(paraIdx, tokenIdx, ch)
	}
	return spans
}

// finalize resolves quotes still open at document end. With
// multi-paragraph handling enabled each one becomes a document-spanning
// span with the Unclosed sentinel; disabled, they are dropped without
// error, as if the opening character had been ordinary punctuation.
func (m *Matcher) finalize(stack *Stack, paragraphCount int, spans []Span) []Span {
	remaining := stack.drain()
	if !m.cfg.HandleMultiParagraph {
		return spans
	}
	for _, open := range remaining {
		spans = append(spans, Span{
			OpenPara:   open.Para,
			OpenToken:  open.Token,
			ClosePara:  paragraphCount - 1,
			CloseToken: Unclosed,
			Char:       open.Char,
			Nesting:    0,
			IsNested:   false,
		})
	}
	return spans
}
