// Package corpus defines the paragraph-level data model shared by the
// quote engine, the TEI extractor, and the dataset store.
//
// Tokens are produced once, by the extractor, with a stable whitespace
// scheme (Tokenize). Downstream consumers never re-tokenize: token indices
// recorded in spans and labels are only meaningful against the original
// token sequence.
package corpus

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/textspan/speechmark/core/errors"
)

// Paragraph is a single tokenized paragraph of a document.
type Paragraph struct {
	// DocID is the identifier of the containing document.
	DocID string `json:"doc_id"`

	// ParaID is the paragraph identifier, unique within the document
	// (e.g., "mobydick_para12").
	ParaID string `json:"para_id"`

	// Text is the raw paragraph text with whitespace collapsed.
	Text string `json:"text"`

	// Tokens is the ordered token sequence derived from Text.
	Tokens []string `json:"tokens"`
}

// LabeledParagraph is a Paragraph plus one BIO label per token.
type LabeledParagraph struct {
	Paragraph

	// BIOLabels holds one label per token: "O", "B-<TYPE>" or "I-<TYPE>".
	BIOLabels []string `json:"bio_labels"`
}

// NewLabeledParagraph builds a LabeledParagraph, enforcing the label/token
// length invariant. This is the only hard invariant of the labeling engine;
// a mismatch here is a construction-time failure, never deferred.
func NewLabeledParagraph(p Paragraph, labels []string) (LabeledParagraph, error) {
	if len(labels) != len(p.Tokens) {
		return LabeledParagraph{}, &errors.ValidationError{
			Field:   "bio_labels",
			Message: formatLengthMismatch(p.ParaID, len(p.Tokens), len(labels)),
		}
	}
	return LabeledParagraph{Paragraph: p, BIOLabels: labels}, nil
}

func formatLengthMismatch(paraID string, tokens, labels int) string {
	if paraID != "" {
		return fmt.Sprintf("label count does not match token count in %s: %d tokens, %d labels", paraID, tokens, labels)
	}
	return fmt.Sprintf("label count does not match token count: %d tokens, %d labels", tokens, labels)
}

// Document is an ordered sequence of paragraphs processed as one unit.
// Quote state never crosses document boundaries.
type Document struct {
	// ID is the document identifier (typically the source file stem).
	ID string `json:"id"`

	// Title is the human-readable title, if known.
	Title string `json:"title,omitempty"`

	// Paragraphs holds the document's paragraphs in reading order.
	// Order is significant: it drives cross-paragraph quote matching.
	Paragraphs []Paragraph `json:"paragraphs"`

	// SourceHash is the BLAKE3 hash of the source artifact, if known.
	SourceHash string `json:"source_hash,omitempty"`
}

// Tokenize splits text on Unicode whitespace. This is the single stable
// tokenization scheme for the whole repository.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// HashText returns the hex-encoded BLAKE3 hash of the given text.
func HashText(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ValidateParagraph returns validation errors for a paragraph.
// A paragraph with no tokens is valid (empty or whitespace-only text).
func ValidateParagraph(p *Paragraph) []error {
	var errs []error
	if p.DocID == "" {
		errs = append(errs, errors.NewValidation("doc_id", "must not be empty"))
	}
	if p.ParaID == "" {
		errs = append(errs, errors.NewValidation("para_id", "must not be empty"))
	}
	return errs
}

// ValidateLabeled returns validation errors for a labeled paragraph,
// including the token/label length invariant.
func ValidateLabeled(lp *LabeledParagraph) []error {
	errs := ValidateParagraph(&lp.Paragraph)
	if len(lp.BIOLabels) != len(lp.Tokens) {
		errs = append(errs, errors.NewValidation("bio_labels",
			formatLengthMismatch(lp.ParaID, len(lp.Tokens), len(lp.BIOLabels))))
	}
	return errs
}
