// Package tei extracts paragraphs and gold speech annotations from
// TEI-encoded literary documents.
//
// The extractor is deliberately tolerant: TEI in the wild mixes namespaces,
// paragraph-like elements, and annotation conventions, so element matching
// is done on local names and missing pieces (header, title, annotations)
// degrade to empty values rather than errors.
package tei

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/textspan/speechmark/core/corpus"
	"github.com/textspan/speechmark/core/errors"
	"github.com/textspan/speechmark/core/quote"
)

// paragraphTags are the TEI elements treated as paragraph units, in
// document order: prose paragraphs, anonymous blocks, verse lines, speech
// turns and utterances.
var paragraphTags = []string{"p", "ab", "l", "sp", "u"}

// quoteTags are the TEI elements treated as gold speech annotations.
var quoteTags = []string{"q", "quote", "said"}

var (
	paragraphExpr = xpath.MustCompile(localNameUnion(paragraphTags))
	quoteExpr     = xpath.MustCompile(localNameUnion(quoteTags))
	titleExpr     = xpath.MustCompile(`//*[local-name()='teiHeader']//*[local-name()='title']`)
)

// localNameUnion builds a namespace-agnostic XPath matching any element
// whose local name is in tags.
func localNameUnion(tags []string) string {
	preds := make([]string, len(tags))
	for i, tag := range tags {
		preds[i] = fmt.Sprintf("local-name()='%s'", tag)
	}
	return "//*[" + strings.Join(preds, " or ") + "]"
}

// Parse parses TEI XML into a queryable document tree.
func Parse(data []byte) (*xmlquery.Node, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &errors.ParseError{Format: "TEI", Message: "malformed XML", Err: err}
	}
	return root, nil
}

// ExtractDocument parses TEI data and returns the document's paragraphs in
// reading order. docID becomes the document identifier and the paragraph
// ID prefix.
func ExtractDocument(docID string, data []byte) (corpus.Document, error) {
	root, err := Parse(data)
	if err != nil {
		return corpus.Document{}, err
	}

	doc := corpus.Document{
		ID:         docID,
		Title:      extractTitle(root),
		SourceHash: corpus.HashText(string(data)),
	}

	for _, node := range paragraphNodes(root) {
		text := Collapse(node.InnerText())
		if text == "" {
			continue
		}
		doc.Paragraphs = append(doc.Paragraphs, corpus.Paragraph{
			DocID:  docID,
			ParaID: fmt.Sprintf("%s_para%d", docID, len(doc.Paragraphs)),
			Text:   text,
			Tokens: corpus.Tokenize(text),
		})
	}

	return doc, nil
}

// ExtractGold parses TEI data and returns its paragraphs labeled from the
// document's own speech annotations. Annotated stretches whose tokens
// cannot be aligned to the paragraph's token sequence are skipped.
func ExtractGold(docID string, data []byte, speechLabel string) ([]corpus.LabeledParagraph, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if speechLabel == "" {
		speechLabel = quote.DefaultSpeechLabel
	}

	var labeled []corpus.LabeledParagraph
	for _, node := range paragraphNodes(root) {
		text := Collapse(node.InnerText())
		if text == "" {
			continue
		}
		para := corpus.Paragraph{
			DocID:  docID,
			ParaID: fmt.Sprintf("%s_para%d", docID, len(labeled)),
			Text:   text,
			Tokens: corpus.Tokenize(text),
		}

		labels := make([]string, len(para.Tokens))
		for i := range labels {
			labels[i] = quote.LabelOutside
		}

		// Align each outermost annotation to the first unconsumed
		// occurrence of its token sequence.
		cursor := 0
		for _, qn := range outermost(xmlquery.QuerySelectorAll(node, quoteExpr)) {
			qTokens := corpus.Tokenize(Collapse(qn.InnerText()))
			if len(qTokens) == 0 {
				continue
			}
			start := findSubsequence(para.Tokens, qTokens, cursor)
			if start < 0 {
				continue
			}
			markRange(labels, para.Tokens, start, start+len(qTokens)-1, speechLabel)
			cursor = start + len(qTokens)
		}

		lp, err := corpus.NewLabeledParagraph(para, labels)
		if err != nil {
			return nil, err
		}
		labeled = append(labeled, lp)
	}

	return labeled, nil
}

// Collapse normalizes whitespace: interior runs become single spaces and
// leading/trailing whitespace is removed.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// extractTitle returns the first title found in the TEI header, or "".
func extractTitle(root *xmlquery.Node) string {
	if node := xmlquery.QuerySelector(root, titleExpr); node != nil {
		return Collapse(node.InnerText())
	}
	return ""
}

// paragraphNodes returns the document's paragraph elements in reading
// order, keeping only the outermost of nested candidates (a <p> inside an
// <sp> is subsumed by the speech turn).
func paragraphNodes(root *xmlquery.Node) []*xmlquery.Node {
	return outermost(xmlquery.QuerySelectorAll(root, paragraphExpr))
}

// outermost filters a document-order node list down to nodes that have no
// ancestor also present in the list.
func outermost(nodes []*xmlquery.Node) []*xmlquery.Node {
	selected := make(map[*xmlquery.Node]bool, len(nodes))
	for _, n := range nodes {
		selected[n] = true
	}

	var kept []*xmlquery.Node
	for _, n := range nodes {
		nested := false
		for p := n.Parent; p != nil; p = p.Parent {
			if selected[p] {
				nested = true
				break
			}
		}
		if !nested {
			kept = append(kept, n)
		}
	}
	return kept
}

// findSubsequence returns the first index at or after from where needle
// appears as a contiguous sub-sequence of haystack, or -1.
func findSubsequence(haystack, needle []string, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, tok := range needle {
			if haystack[i+j] != tok {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// markRange labels tokens start..end the way the engine's projector does:
// quote-delimiter tokens stay outside, the first content token begins the
// run and the rest continue it.
func markRange(labels, tokens []string, start, end int, speechLabel string) {
	first := true
	for i := start; i <= end && i < len(labels); i++ {
		if quote.IsDelimiterToken(tokens[i]) {
			continue
		}
		if first {
			labels[i] = quote.BeginLabel(speechLabel)
			first = false
		} else {
			labels[i] = quote.InsideLabel(speechLabel)
		}
	}
}
