package quote

import (
	"sort"

	"github.com/textspan/speechmark/core/corpus"
)

// ProjectLabels converts the span list into one BIO label sequence per
// paragraph. Spans are bucketed by opening paragraph and carried forward
// while they cover subsequent paragraphs, so the pass is linear in
// paragraphs plus spans.
//
// Within each paragraph, covering spans are applied in span-list order and
// later writes overwrite earlier ones. Overlapping spans produced by the
// stack are always properly nested, which keeps this policy stable; it is
// deliberately not a nesting-aware composition.
func ProjectLabels(paragraphs []corpus.Paragraph, spans []Span, speechLabel string) ([]corpus.LabeledParagraph, error) {
	if speechLabel == "" {
		speechLabel = DefaultSpeechLabel
	}
	begin := BeginLabel(speechLabel)
	inside := InsideLabel(speechLabel)

	// Bucket span indices by opening paragraph.
	opensAt := make(map[int][]int, len(spans))
	for i, s := range spans {
		opensAt[s.OpenPara] = append(opensAt[s.OpenPara], i)
	}

	labeled := make([]corpus.LabeledParagraph, 0, len(paragraphs))
	var active []int

	for paraIdx := range paragraphs {
		tokens := paragraphs[paraIdx].Tokens
		labels := make([]string, len(tokens))
		for i := range labels {
			labels[i] = LabelOutside
		}

		// Drop spans that ended before this paragraph, admit spans that
		// open here, and apply the survivors in span-list order so that
		// the last-write-wins policy is deterministic.
		active = pruneSpans(active, spans, paraIdx)
		active = append(active, opensAt[paraIdx]...)
		applied := make([]int, len(active))
		copy(applied, active)
		sort.Ints(applied)

		for _, spanIdx := range applied {
			applySpan(spans[spanIdx], paraIdx, tokens, labels, begin, inside)
		}

		lp, err := corpus.NewLabeledParagraph(paragraphs[paraIdx], labels)
		if err != nil {
			return nil, err
		}
		labeled = append(labeled, lp)
	}

	return labeled, nil
}

// pruneSpans removes span indices whose range no longer covers paraIdx.
func pruneSpans(active []int, spans []Span, paraIdx int) []int {
	kept := active[:0]
	for _, i := range active {
		if spans[i].Covers(paraIdx) {
			kept = append(kept, i)
		}
	}
	return kept
}

// applySpan writes BIO labels for the part of span s that falls inside
// paragraph paraIdx. Quote-delimiter tokens are skipped and stay "O"; the
// first content token of the sub-range gets the B- label and the rest get
// I- labels.
func applySpan(s Span, paraIdx int, tokens, labels []string, begin, inside string) {
	startTok := 0
	if paraIdx == s.OpenPara {
		startTok = s.OpenToken
	}

	endTok := len(tokens) - 1
	if paraIdx == s.ClosePara && !s.IsUnclosed() {
		endTok = s.CloseToken
	}
	if endTok > len(tokens)-1 {
		endTok = len(tokens) - 1
	}

	first := true
	for i := startTok; i <= endTok && i < len(labels); i++ {
		if i < 0 {
			continue
		}
		if IsDelimiterToken(tokens[i]) {
			continue
		}
		if first {
			labels[i] = begin
			first = false
		} else {
			labels[i] = inside
		}
	}
}
