package quote

import "strings"

// LabelOutside is the BIO label for tokens outside every span.
const LabelOutside = "O"

// BeginLabel returns the B- label for the given speech label.
func BeginLabel(speechLabel string) string { return "B-" + speechLabel }

// InsideLabel returns the I- label for the given speech label.
func InsideLabel(speechLabel string) string { return "I-" + speechLabel }

// IsBegin reports whether label is a B- label.
func IsBegin(label string) bool { return strings.HasPrefix(label, "B-") }

// IsInside reports whether label is an I- label.
func IsInside(label string) bool { return strings.HasPrefix(label, "I-") }

// LabelType returns the type suffix of a B- or I- label, or "" for
// LabelOutside.
func LabelType(label string) string {
	if IsBegin(label) || IsInside(label) {
		return label[2:]
	}
	return ""
}
