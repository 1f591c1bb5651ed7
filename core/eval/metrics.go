// Package eval scores predicted BIO labels against gold annotations.
//
// Scoring is entity-level: an entity is a maximal B-/I- run of one type
// within a paragraph, and a prediction counts as correct only when both
// its boundaries and its type match a gold entity exactly. Token-level
// accuracy is deliberately not reported; it rewards the trivial all-O
// labeling on speech-sparse corpora.
package eval

import (
	"fmt"

	"github.com/textspan/speechmark/core/errors"
	"github.com/textspan/speechmark/core/quote"
)

// Metrics holds entity-level scores for one evaluation.
type Metrics struct {
	// TruePositives, FalsePositives and FalseNegatives are entity counts.
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`

	// Precision, Recall and F1 are derived from the counts. A divisor of
	// zero yields a score of zero, not NaN.
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// entity is one labeled run: token positions [Start, End] of one type
// within a single paragraph.
type entity struct {
	Start int
	End   int
	Type  string
}

// Evaluate scores predicted label sequences against gold sequences. Both
// slices hold one label sequence per paragraph and must agree in shape.
func Evaluate(gold, pred [][]string) (Metrics, error) {
	if len(gold) != len(pred) {
		return Metrics{}, errors.NewValidation("pred",
			fmt.Sprintf("paragraph count mismatch: %d gold, %d predicted", len(gold), len(pred)))
	}

	var m Metrics
	for i := range gold {
		if len(gold[i]) != len(pred[i]) {
			return Metrics{}, errors.NewValidation("pred",
				fmt.Sprintf("token count mismatch in paragraph %d: %d gold, %d predicted", i, len(gold[i]), len(pred[i])))
		}

		goldEnts := extractEntities(gold[i])
		predEnts := extractEntities(pred[i])

		goldSet := make(map[entity]bool, len(goldEnts))
		for _, e := range goldEnts {
			goldSet[e] = true
		}

		for _, e := range predEnts {
			if goldSet[e] {
				m.TruePositives++
				delete(goldSet, e)
			} else {
				m.FalsePositives++
			}
		}
		m.FalseNegatives += len(goldSet)
	}

	m.derive()
	return m, nil
}

// derive fills Precision, Recall and F1 from the counts.
func (m *Metrics) derive() {
	m.Precision = ratio(m.TruePositives, m.TruePositives+m.FalsePositives)
	m.Recall = ratio(m.TruePositives, m.TruePositives+m.FalseNegatives)
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Add accumulates counts from another Metrics value and rederives the
// scores. Used to pool counts across documents (micro-averaging).
func (m *Metrics) Add(other Metrics) {
	m.TruePositives += other.TruePositives
	m.FalsePositives += other.FalsePositives
	m.FalseNegatives += other.FalseNegatives
	m.derive()
}

// extractEntities converts one BIO sequence into entities. A B- label
// always starts an entity; an I- label continues an entity of the same
// type, and otherwise starts one (tolerant of the dangling I- runs that
// cross-paragraph projection produces).
func extractEntities(labels []string) []entity {
	var ents []entity
	open := -1
	openType := ""

	flush := func(end int) {
		if open >= 0 {
			ents = append(ents, entity{Start: open, End: end, Type: openType})
			open = -1
		}
	}

	for i, label := range labels {
		switch {
		case quote.IsBegin(label):
			flush(i - 1)
			open = i
			openType = quote.LabelType(label)
		case quote.IsInside(label):
			if open < 0 || quote.LabelType(label) != openType {
				flush(i - 1)
				open = i
				openType = quote.LabelType(label)
			}
		default:
			flush(i - 1)
		}
	}
	flush(len(labels) - 1)
	return ents
}
