// Package spanref parses and formats the textual span-reference notation
// used to persist quote spans: "<openPara>.<openToken>-<closePara>.<closeToken>",
// with "u" as the closing-token position of an unclosed span
// (e.g., "0.2-0.5", "3.7-5.u").
package spanref

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/textspan/speechmark/core/errors"
	"github.com/textspan/speechmark/core/quote"
)

// Ref is a parsed span reference. Positions are zero-based paragraph and
// token indices within one document.
type Ref struct {
	// OpenPara and OpenToken locate the opening quote character.
	OpenPara  int `json:"open_para"`
	OpenToken int `json:"open_token"`

	// ClosePara and CloseToken locate the closing quote character.
	// CloseToken is quote.Unclosed for spans without a closing character.
	ClosePara  int `json:"close_para"`
	CloseToken int `json:"close_token"`
}

// refGrammar is the participle grammar for span references.
// Examples: "0.2-0.5", "3.7-5.u"
type refGrammar struct {
	OpenPara  int       `parser:"@Int '.'"`
	OpenToken int       `parser:"@Int '-'"`
	ClosePara int       `parser:"@Int '.'"`
	Close     closePart `parser:"@@"`
}

type closePart struct {
	Token    *int `parser:"@Int"`
	Unclosed bool `parser:"| @Unclosed"`
}

var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Unclosed", Pattern: `u`},
	{Name: "Punct", Pattern: `[.\-]`},
})

var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
)

// Parse parses a span reference string.
func Parse(s string) (*Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.NewValidation("span_ref", "must not be empty")
	}

	parsed, err := refParser.ParseString("", s)
	if err != nil {
		return nil, &errors.ParseError{
			Format:  "span ref",
			Message: fmt.Sprintf("invalid span reference %q", s),
			Err:     err,
		}
	}

	ref := &Ref{
		OpenPara:   parsed.OpenPara,
		OpenToken:  parsed.OpenToken,
		ClosePara:  parsed.ClosePara,
		CloseToken: quote.Unclosed,
	}
	if parsed.Close.Token != nil {
		ref.CloseToken = *parsed.Close.Token
	}

	if err := ref.validate(); err != nil {
		return nil, err
	}
	return ref, nil
}

func (r *Ref) validate() error {
	if r.ClosePara < r.OpenPara {
		return errors.NewValidation("span_ref",
			fmt.Sprintf("closing paragraph %d precedes opening paragraph %d", r.ClosePara, r.OpenPara))
	}
	if r.OpenPara == r.ClosePara && !r.IsUnclosed() && r.CloseToken < r.OpenToken {
		return errors.NewValidation("span_ref",
			fmt.Sprintf("closing token %d precedes opening token %d", r.CloseToken, r.OpenToken))
	}
	return nil
}

// IsUnclosed reports whether the reference names a span without a closing
// character.
func (r *Ref) IsUnclosed() bool { return r.CloseToken == quote.Unclosed }

// String returns the canonical textual form of the reference.
func (r *Ref) String() string {
	if r.IsUnclosed() {
		return fmt.Sprintf("%d.%d-%d.u", r.OpenPara, r.OpenToken, r.ClosePara)
	}
	return fmt.Sprintf("%d.%d-%d.%d", r.OpenPara, r.OpenToken, r.ClosePara, r.CloseToken)
}

// FromSpan converts a detected quote span to its reference form.
func FromSpan(s quote.Span) *Ref {
	return &Ref{
		OpenPara:   s.OpenPara,
		OpenToken:  s.OpenToken,
		ClosePara:  s.ClosePara,
		CloseToken: s.CloseToken,
	}
}

// Span converts the reference back to a span value. The quote character
// and nesting level are not part of the notation and are left zero.
func (r *Ref) Span() quote.Span {
	return quote.Span{
		OpenPara:   r.OpenPara,
		OpenToken:  r.OpenToken,
		ClosePara:  r.ClosePara,
		CloseToken: r.CloseToken,
	}
}
