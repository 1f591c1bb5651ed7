// Package quote implements deterministic quote-span detection over
// tokenized paragraphs and its projection onto per-token BIO labels.
//
// The engine runs in four stages: a per-character classifier that
// separates quote delimiters from apostrophes, a stack matcher that pairs
// opening and closing characters across paragraph boundaries, a finalizer
// for quotes still open at document end, and a projector that turns the
// resulting spans into BIO label sequences.
package quote

// Quote characters recognized by the engine. Straight quotes are
// ambiguous: they appear in both the opening and closing sets, and only
// the matcher's stack state decides their role.
const (
	StraightDouble = '"'
	StraightSingle = '\''
	LeftDouble     = '“' // “
	RightDouble    = '”' // ”
	LeftSingle     = '‘' // ‘
	RightSingle    = '’' // ’
	LeftGuillemet  = '«' // «
	RightGuillemet = '»' // »
)

// openingQuotes is the set of characters that can open a quotation.
var openingQuotes = map[rune]bool{
	StraightDouble: true,
	LeftDouble:     true,
	StraightSingle: true,
	LeftSingle:     true,
	LeftGuillemet:  true,
}

// closingQuotes is the set of characters that can close a quotation.
var closingQuotes = map[rune]bool{
	StraightDouble: true,
	RightDouble:    true,
	StraightSingle: true,
	RightSingle:    true,
	RightGuillemet: true,
}

// singleFamily is the set of single-quote-family characters, the only
// ones that can be apostrophes.
var singleFamily = map[rune]bool{
	StraightSingle: true,
	LeftSingle:     true,
	RightSingle:    true,
}

// allQuoteChars drives the paragraph fast path: a paragraph whose raw
// text contains none of these characters is skipped without touching the
// stack.
const allQuoteChars = "\"'“”‘’«»"

// IsOpening reports whether ch can open a quotation.
func IsOpening(ch rune) bool { return openingQuotes[ch] }

// IsClosing reports whether ch can close a quotation.
func IsClosing(ch rune) bool { return closingQuotes[ch] }

// IsQuoteChar reports whether ch belongs to either quote set.
func IsQuoteChar(ch rune) bool { return openingQuotes[ch] || closingQuotes[ch] }

// IsSingleFamily reports whether ch is a single-quote-family character.
func IsSingleFamily(ch rune) bool { return singleFamily[ch] }

// IsDelimiterToken reports whether token consists of exactly one
// quote-family character. Delimiter tokens are never labeled.
func IsDelimiterToken(token string) bool {
	runes := []rune(token)
	return len(runes) == 1 && IsQuoteChar(runes[0])
}

// family groups quote characters so that a closing character is only
// matched against an opening character of the same kind.
type family int

const (
	familyNone family = iota
	familyDouble
	familySingle
	familyGuillemet
)

func quoteFamily(ch rune) family {
	switch ch {
	case StraightDouble, LeftDouble, RightDouble:
		return familyDouble
	case StraightSingle, LeftSingle, RightSingle:
		return familySingle
	case LeftGuillemet, RightGuillemet:
		return familyGuillemet
	default:
		return familyNone
	}
}

// Closes reports whether ch can act as the closing mark for a quotation
// opened by open: ch must belong to the closing set and to the same quote
// family as open. Without the family check, an opening single quote seen
// while a double quote is still open would incorrectly terminate it,
// making nested quotations undetectable.
func Closes(ch, open rune) bool {
	return IsClosing(ch) && quoteFamily(ch) == quoteFamily(open)
}
