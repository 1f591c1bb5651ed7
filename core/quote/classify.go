package quote

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Role is the classification of a quote-family character occurrence.
type Role int

const (
	// RoleOpening marks a character acting as an opening quote delimiter.
	RoleOpening Role = iota
	// RoleClosing marks a character acting as a closing quote delimiter.
	RoleClosing
	// RoleApostrophe marks a single-quote-family character used as an
	// apostrophe (contraction or possessive), not a delimiter.
	RoleApostrophe
)

func (r Role) String() string {
	switch r {
	case RoleOpening:
		return "opening"
	case RoleClosing:
		return "closing"
	case RoleApostrophe:
		return "apostrophe"
	default:
		return "unknown"
	}
}

// Classify determines the role of the quote-family character at rune index
// charIdx of tokens[tokenIdx]. text is the raw paragraph text, used only as
// a last-resort context check for single-quote-family characters.
//
// For ambiguous characters (straight quotes, members of both sets) the
// returned role is RoleOpening; the matcher's stack state makes the final
// opening-versus-closing decision.
func Classify(ch rune, charIdx int, tokenIdx int, tokens []string, text string) Role {
	if IsSingleFamily(ch) && isApostrophe(ch, charIdx, tokenIdx, tokens, text) {
		return RoleApostrophe
	}
	if IsOpening(ch) {
		return RoleOpening
	}
	return RoleClosing
}

// isApostrophe decides whether a single-quote-family character is an
// apostrophe rather than a quote delimiter. The rules are positional and
// deliberately asymmetric between leading and trailing occurrences:
// leading marks ('twas, 'word) are more often quote opens, trailing marks
// (scholars') are more often possessives. The order of checks is load
// bearing; do not rearrange it.
func isApostrophe(ch rune, charIdx int, tokenIdx int, tokens []string, text string) bool {
	if tokenIdx < 0 || tokenIdx >= len(tokens) {
		return false
	}
	token := []rune(tokens[tokenIdx])

	// A standalone quote character is never an apostrophe.
	if len(token) == 1 {
		return false
	}

	last := len(token) - 1
	switch {
	case charIdx == 0:
		// Leading position: 'word with an alphabetic remainder reads as
		// a quote delimiter, e.g. 'Hello or 'tis-like dialect forms.
		if len(token) > 2 && isAlphaOrHyphens(token[1:]) {
			return false
		}
	case charIdx == last:
		// Trailing position: word' reads as a possessive apostrophe.
		if len(token) > 2 {
			return true
		}
	default:
		// Internal position: don't, Cameron's.
		return true
	}

	// Fall back to raw-text context: a mark squeezed between letters is
	// an apostrophe.
	prev, next, ok := textNeighbors(text, tokens[tokenIdx], charIdx)
	if ok && unicode.IsLetter(prev) && (unicode.IsLetter(next) || next == 's') {
		return true
	}

	return false
}

// isAlphaOrHyphens reports whether all runes are letters, ignoring hyphens.
func isAlphaOrHyphens(runes []rune) bool {
	seenLetter := false
	for _, r := range runes {
		if r == '-' {
			continue
		}
		if !unicode.IsLetter(r) {
			return false
		}
		seenLetter = true
	}
	return seenLetter
}

// textNeighbors locates the first occurrence of token in text and returns
// the runes immediately before and after the character at rune index
// charIdx within it. Duplicate substrings resolve to the first occurrence;
// alignment never fails, it just reports ok=false when there is no
// neighbor on either side.
func textNeighbors(text, token string, charIdx int) (prev, next rune, ok bool) {
	byteOff := strings.Index(text, token)
	if byteOff < 0 {
		return 0, 0, false
	}

	// Advance to the byte offset of the target rune within the token.
	inner := token
	for i := 0; i < charIdx; i++ {
		_, size := utf8.DecodeRuneInString(inner)
		if size == 0 {
			return 0, 0, false
		}
		byteOff += size
		inner = inner[size:]
	}
	_, chSize := utf8.DecodeRuneInString(inner)
	if chSize == 0 {
		return 0, 0, false
	}

	before := text[:byteOff]
	after := text[byteOff+chSize:]
	if before == "" || after == "" {
		return 0, 0, false
	}

	prev, _ = utf8.DecodeLastRuneInString(before)
	next, _ = utf8.DecodeRuneInString(after)
	return prev, next, true
}
