package quote

import "github.com/textspan/speechmark/core/corpus"

// Labeler is the high-level entry point of the engine: it runs the matcher
// and the projector over one document and returns its labeled paragraphs.
// The engine is pure and deterministic; identical input and configuration
// always produce identical labels.
type Labeler struct {
	matcher *Matcher
}

// NewLabeler returns a Labeler with the given configuration.
func NewLabeler(cfg Config) *Labeler {
	return &Labeler{matcher: NewMatcher(cfg)}
}

// Config returns the labeler's configuration.
func (l *Labeler) Config() Config { return l.matcher.Config() }

// LabelParagraphs labels one document's paragraphs. The paragraph slice is
// treated as a complete document: quote state is tracked across its
// paragraph boundaries and discarded afterwards.
func (l *Labeler) LabelParagraphs(paragraphs []corpus.Paragraph) ([]corpus.LabeledParagraph, error) {
	spans := l.matcher.FindSpans(paragraphs)
	return ProjectLabels(paragraphs, spans, l.matcher.Config().SpeechLabel)
}

// LabelDocument labels a document.
func (l *Labeler) LabelDocument(doc corpus.Document) ([]corpus.LabeledParagraph, error) {
	return l.LabelParagraphs(doc.Paragraphs)
}
